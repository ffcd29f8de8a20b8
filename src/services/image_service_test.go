package services_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"
	"sync"
	"testing"

	"pantry-server/src/services"
	"pantry-server/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedObject struct {
	key         string
	contentType string
	body        []byte
}

type fakeStorage struct {
	mu      sync.Mutex
	objects []storedObject
	err     error
}

func (s *fakeStorage) Upload(_ context.Context, key string, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.objects = append(s.objects, storedObject{key: key, contentType: contentType, body: body})
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *fakeStorage) last(t *testing.T) storedObject {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.objects)
	return s.objects[len(s.objects)-1]
}

func testImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(width, height)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(width, height), nil))
	return buf.Bytes()
}

func TestUploadBase64(t *testing.T) {
	storage := &fakeStorage{}
	service := services.NewImageService(storage, 10000)
	ctx := context.Background()

	raw := pngBytes(t, 40, 20)
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	res, err := service.UploadBase64(ctx, encoded, "")
	require.NoError(t, err)

	obj := storage.last(t)
	assert.Equal(t, utils.MimeTypePNG, obj.contentType)
	assert.True(t, strings.HasSuffix(obj.key, ".png"))
	assert.Len(t, strings.TrimSuffix(obj.key, ".png"), 32)
	assert.Equal(t, raw, obj.body)
	assert.Equal(t, "https://cdn.example.com/"+obj.key, res.URL)
}

func TestUploadBase64WithoutPrefix(t *testing.T) {
	storage := &fakeStorage{}
	service := services.NewImageService(storage, 10000)

	raw := jpegBytes(t, 10, 10)
	_, err := service.UploadBase64(context.Background(), base64.RawStdEncoding.EncodeToString(raw), "")
	require.NoError(t, err)

	obj := storage.last(t)
	assert.Equal(t, utils.MimeTypeJPEG, obj.contentType)
	assert.True(t, strings.HasSuffix(obj.key, ".jpg"))
}

func TestUploadBase64Rejects(t *testing.T) {
	storage := &fakeStorage{}
	service := services.NewImageService(storage, 10000)
	ctx := context.Background()

	_, err := service.UploadBase64(ctx, base64.StdEncoding.EncodeToString([]byte("GIF89a not really")), "")
	httpErr := requireHTTPError(t, err, http.StatusBadRequest, utils.CodeInvalidData)
	assert.Equal(t, "Only PNG and JPG images are allowed", httpErr.Message)

	_, err = service.UploadBase64(ctx, "%%% not base64 %%%", "")
	requireHTTPError(t, err, http.StatusBadRequest, utils.CodeInvalidData)

	assert.Empty(t, storage.objects)
}

func TestUploadResize(t *testing.T) {
	storage := &fakeStorage{}
	service := services.NewImageService(storage, 10000)
	ctx := context.Background()

	_, err := service.UploadFile(ctx, utils.MimeTypePNG, pngBytes(t, 200, 100), "50")
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(storage.last(t).body))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)

	_, err = service.UploadFile(ctx, utils.MimeTypeJPG, jpegBytes(t, 80, 40), "20")
	require.NoError(t, err)

	obj := storage.last(t)
	assert.Equal(t, utils.MimeTypeJPEG, obj.contentType)
	cfg, format, err = image.DecodeConfig(bytes.NewReader(obj.body))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestUploadResizeNeverEnlarges(t *testing.T) {
	storage := &fakeStorage{}
	service := services.NewImageService(storage, 10000)

	raw := pngBytes(t, 30, 30)
	_, err := service.UploadFile(context.Background(), utils.MimeTypePNG, raw, "500")
	require.NoError(t, err)
	assert.Equal(t, raw, storage.last(t).body)
}

func TestUploadResizeValidation(t *testing.T) {
	service := services.NewImageService(&fakeStorage{}, 10000)
	raw := pngBytes(t, 10, 10)

	for _, resize := range []string{"0", "-5", "10001", "abc", "12px"} {
		_, err := service.UploadFile(context.Background(), utils.MimeTypePNG, raw, resize)
		requireHTTPError(t, err, http.StatusBadRequest, utils.CodeInvalidData)
	}
}

func TestUploadFileRejects(t *testing.T) {
	service := services.NewImageService(&fakeStorage{}, 10000)
	ctx := context.Background()

	_, err := service.UploadFile(ctx, "image/gif", pngBytes(t, 10, 10), "")
	requireHTTPError(t, err, http.StatusBadRequest, utils.CodeInvalidData)

	_, err = service.UploadFile(ctx, utils.MimeTypePNG, []byte("plain text pretending"), "")
	requireHTTPError(t, err, http.StatusBadRequest, utils.CodeInvalidData)
}

func TestUploadStorageFailure(t *testing.T) {
	service := services.NewImageService(&fakeStorage{err: errors.New("bucket gone")}, 10000)

	_, err := service.UploadFile(context.Background(), utils.MimeTypePNG, pngBytes(t, 10, 10), "")
	httpErr := requireHTTPError(t, err, http.StatusInternalServerError, utils.CodeServerError)
	assert.Equal(t, "Failed to upload image", httpErr.Message)

	_, err = services.NewImageService(nil, 10000).UploadFile(context.Background(), utils.MimeTypePNG, pngBytes(t, 10, 10), "")
	assert.ErrorIs(t, err, services.ErrStorageNotConfigured)
}
