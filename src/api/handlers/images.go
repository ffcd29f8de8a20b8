package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"pantry-server/src/schemas"
	"pantry-server/src/utils"
)

// multipartOverhead covers form boundaries and headers around the file part.
const multipartOverhead = 1 << 20

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	resize := r.URL.Query().Get("resize")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		declaredType, data, err := h.readMultipartImage(w, r)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		res, err := h.ImageService.UploadFile(ctx, declaredType, data, resize)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		h.respond(w, r, res, http.StatusOK)
		return
	}

	var req schemas.Base64ImageRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if req.Image == "" {
		h.HandleErrors(w, r, utils.BadRequest("No image provided"))
		return
	}

	res, err := h.ImageService.UploadBase64(ctx, req.Image, resize)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) readMultipartImage(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	tooLarge := utils.PayloadTooLarge("File too large")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, tooLarge
		}
		return "", nil, utils.BadRequest("Invalid multipart body")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		return "", nil, utils.BadRequest("No image provided")
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return "", nil, tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return "", nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return "", nil, tooLarge
	}
	return header.Header.Get("Content-Type"), data, nil
}
