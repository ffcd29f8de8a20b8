package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"pantry-server/src/schemas"
	"pantry-server/src/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ObjectStorage is where uploaded images end up.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, contentType string, body []byte) error
	PublicURL(key string) string
}

type ImageServiceI interface {
	UploadBase64(ctx context.Context, image string, resize string) (*schemas.ImageUploadResponse, error)
	UploadFile(ctx context.Context, declaredType string, data []byte, resize string) (*schemas.ImageUploadResponse, error)
}

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

const unsupportedImageMessage = "Only PNG and JPG images are allowed"

type ImageService struct {
	storage        ObjectStorage
	maxResizeWidth int
}

var ErrStorageNotConfigured = errors.New("object storage is not configured")

type unconfiguredStorage struct{}

func (unconfiguredStorage) Upload(context.Context, string, string, []byte) error {
	return ErrStorageNotConfigured
}

func (unconfiguredStorage) PublicURL(string) string { return "" }

// NewImageService builds the upload service. A nil storage makes every upload fail with a 500.
func NewImageService(storage ObjectStorage, maxResizeWidth int) *ImageService {
	if storage == nil {
		storage = unconfiguredStorage{}
	}
	return &ImageService{
		storage:        storage,
		maxResizeWidth: maxResizeWidth,
	}
}

func (s *ImageService) UploadBase64(ctx context.Context, image string, resize string) (*schemas.ImageUploadResponse, error) {
	width, err := s.parseResize(resize)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(image) == "" {
		return nil, utils.BadRequest("Invalid base64 image data")
	}

	encoded := dataURIPrefix.ReplaceAllString(strings.TrimSpace(image), "")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, utils.BadRequest("Invalid base64 image data")
		}
	}

	contentType, ok := sniffImage(data, utils.MimeTypePNG, utils.MimeTypeJPEG, utils.MimeTypeWebP)
	if !ok {
		return nil, utils.BadRequest(unsupportedImageMessage)
	}
	return s.store(ctx, data, contentType, width)
}

func (s *ImageService) UploadFile(ctx context.Context, declaredType string, data []byte, resize string) (*schemas.ImageUploadResponse, error) {
	width, err := s.parseResize(resize)
	if err != nil {
		return nil, err
	}
	switch declaredType {
	case utils.MimeTypePNG, utils.MimeTypeJPEG, utils.MimeTypeJPG:
	default:
		return nil, utils.BadRequest(unsupportedImageMessage)
	}

	// The declared type comes from the client; trust the bytes.
	contentType, ok := sniffImage(data, utils.MimeTypePNG, utils.MimeTypeJPEG)
	if !ok {
		return nil, utils.BadRequest(unsupportedImageMessage)
	}
	return s.store(ctx, data, contentType, width)
}

func (s *ImageService) store(ctx context.Context, data []byte, contentType string, width int) (*schemas.ImageUploadResponse, error) {
	logger := utils.LoggerFromContext(ctx)

	if width > 0 {
		resized, resizedType, err := ResizeImage(data, contentType, width)
		if err != nil {
			logger.WithError(err).Warn("image could not be decoded")
			return nil, utils.BadRequest("Invalid image data")
		}
		data, contentType = resized, resizedType
	}

	key := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + extensionFor(contentType)
	if err := s.storage.Upload(ctx, key, contentType, data); err != nil {
		logger.WithError(err).WithField("key", key).Error("image upload failed")
		return nil, &utils.HTTPError{
			Status:  http.StatusInternalServerError,
			Code:    utils.CodeServerError,
			Message: "Failed to upload image",
			Cause:   err,
		}
	}

	logger.WithField("key", key).WithField("bytes", len(data)).Info("image uploaded")
	return &schemas.ImageUploadResponse{URL: s.storage.PublicURL(key)}, nil
}

// parseResize returns 0 when no resize was requested.
func (s *ImageService) parseResize(resize string) (int, error) {
	if resize == "" {
		return 0, nil
	}
	width, err := strconv.Atoi(resize)
	if err != nil || width <= 0 || width > s.maxResizeWidth {
		return 0, utils.BadRequest("Invalid resize parameter. Must be a number between 1 and " + strconv.Itoa(s.maxResizeWidth))
	}
	return width, nil
}

func sniffImage(data []byte, allowed ...string) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	detected := mimetype.Detect(data)
	for _, candidate := range allowed {
		if detected.Is(candidate) {
			return candidate, true
		}
	}
	return "", false
}
