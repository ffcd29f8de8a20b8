package utils

// TimestampLayout matches JavaScript's Date.prototype.toISOString output.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	MimeTypePNG  = "image/png"
	MimeTypeJPEG = "image/jpeg"
	MimeTypeJPG  = "image/jpg"
	MimeTypeWebP = "image/webp"
)
