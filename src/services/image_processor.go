package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"pantry-server/src/utils"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const jpegQuality = 90

// ResizeImage scales data down to width keeping the aspect ratio. Images already
// narrower than width are returned untouched. WebP input is re-encoded as PNG,
// so the returned content type may differ from the input one.
func ResizeImage(data []byte, contentType string, width int) ([]byte, string, error) {
	src, err := decodeImage(data, contentType)
	if err != nil {
		return nil, "", err
	}

	bounds := src.Bounds()
	if bounds.Dx() <= width {
		return data, contentType, nil
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch contentType {
	case utils.MimeTypeJPEG:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	default:
		contentType = utils.MimeTypePNG
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), contentType, nil
}

func decodeImage(data []byte, contentType string) (image.Image, error) {
	reader := bytes.NewReader(data)
	switch contentType {
	case utils.MimeTypePNG:
		return png.Decode(reader)
	case utils.MimeTypeJPEG:
		return jpeg.Decode(reader)
	case utils.MimeTypeWebP:
		return webp.Decode(reader)
	}
	return nil, fmt.Errorf("unsupported image type %q", contentType)
}

func extensionFor(contentType string) string {
	switch contentType {
	case utils.MimeTypePNG:
		return "png"
	case utils.MimeTypeWebP:
		return "webp"
	}
	return "jpg"
}
