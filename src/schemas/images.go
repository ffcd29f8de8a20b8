package schemas

type Base64ImageRequest struct {
	Image string `json:"image"`
}

type ImageUploadResponse struct {
	URL string `json:"url"`
}
