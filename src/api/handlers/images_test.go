package handlers_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"pantry-server/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 8))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, token, query, contentType string, data []byte) *http.Response {
	t.Helper()
	body, formType := multipartBody(t, contentType, data)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/images/upload"+query, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestUploadImageBase64(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "cook@example.com")

	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(smallPNG(t))
	res := ts.do(t, http.MethodPost, "/api/images/upload?resize=8", token, map[string]string{"image": encoded})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		URL string `json:"url"`
	}
	decode(t, res, &body)
	require.Len(t, ts.storage.keys, 1)
	assert.Equal(t, "https://cdn.example.com/"+ts.storage.keys[0], body.URL)
	assert.True(t, strings.HasSuffix(body.URL, ".png"))
}

func TestUploadImageMultipart(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "cook@example.com")

	res := ts.upload(t, token, "", "image/png", smallPNG(t))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = ts.upload(t, token, "", "image/gif", smallPNG(t))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Only PNG and JPG images are allowed", decodeError(t, res).Message)

	res = ts.upload(t, token, "?resize=0", "image/png", smallPNG(t))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, utils.CodeInvalidData, decodeError(t, res).Code)

	assert.Len(t, ts.storage.keys, 1)
}

func TestUploadImageErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "cook@example.com")

	res := ts.do(t, http.MethodPost, "/api/images/upload", "", map[string]string{"image": "x"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = ts.do(t, http.MethodPost, "/api/images/upload", token, map[string]string{})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "No image provided", decodeError(t, res).Message)

	res = ts.do(t, http.MethodPost, "/api/images/upload", token, map[string]string{"image": base64.StdEncoding.EncodeToString([]byte("hello"))})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Only PNG and JPG images are allowed", decodeError(t, res).Message)
}
