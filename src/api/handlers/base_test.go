package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pantry-server/src/api"
	"pantry-server/src/api/handlers"
	"pantry-server/src/config"
	"pantry-server/src/repositories/repotest"
	"pantry-server/src/utils"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStorage struct {
	keys []string
}

func (s *fakeStorage) Upload(_ context.Context, key string, _ string, _ []byte) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type testServer struct {
	*httptest.Server
	handler *handlers.Handler
	cfg     *config.Config
	users   *repotest.UserRepository
	sync    *repotest.SyncRepository
	storage *fakeStorage
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			RequestTimeout:   5 * time.Second,
			MaxJSONBodyBytes: 1 << 20,
		},
		Auth: config.AuthConfig{
			JWTSecret:         "handler-secret",
			TokenLifetime:     time.Hour,
			BcryptCost:        bcrypt.MinCost,
			MinPasswordLength: 6,
		},
		Images: config.ImagesConfig{
			MaxUploadBytes: 64 << 10,
			MaxResizeWidth: 10000,
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ts := &testServer{
		cfg:     testConfig(),
		users:   repotest.NewUserRepository(),
		sync:    repotest.NewSyncRepository(),
		storage: &fakeStorage{},
	}
	ts.handler = handlers.NewHandlerWithDependencies(ts.cfg, logger, handlers.Dependencies{
		SyncRepository: ts.sync,
		UserRepository: ts.users,
		Storage:        ts.storage,
		Clock:          clockwork.NewRealClock(),
		JWTSecret:      "handler-secret",
	})
	ts.Server = httptest.NewServer(api.NewServer(ts.cfg, ts.handler))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

// signup registers a user and returns its bearer token.
func (ts *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	res := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, res, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func decode(t *testing.T, res *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
}

func decodeError(t *testing.T, res *http.Response) *utils.HTTPError {
	t.Helper()
	var envelope utils.ErrorEnvelope
	decode(t, res, &envelope)
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	require.Equal(t, res.StatusCode, envelope.Error.Status)
	return envelope.Error
}
