package utils_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-server/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	t.Run("http error keeps status and code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		utils.WriteError(rec, utils.NotFound("Sync metadata not found for this file type"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{
			"success": false,
			"error": {
				"statusCode": 404,
				"code": "NOT_FOUND",
				"message": "Sync metadata not found for this file type"
			}
		}`, rec.Body.String())
	})

	t.Run("unknown errors are hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		utils.WriteError(rec, errors.New("pq: password authentication failed"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var envelope utils.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.False(t, envelope.Success)
		assert.Equal(t, utils.CodeServerError, envelope.Error.Code)
		assert.Equal(t, "Internal server error", envelope.Error.Message)
	})
}

func TestHTTPErrorConstructors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   utils.ErrorCode
	}{
		{utils.BadRequest("x"), http.StatusBadRequest, utils.CodeInvalidData},
		{utils.Unauthorized("x"), http.StatusUnauthorized, utils.CodeUnauthorized},
		{utils.NotFound("x"), http.StatusNotFound, utils.CodeNotFound},
		{utils.Conflict("x"), http.StatusConflict, utils.CodeConflict},
		{utils.PayloadTooLarge("x"), http.StatusRequestEntityTooLarge, utils.CodePayloadTooLarge},
		{utils.InternalServerError("x"), http.StatusInternalServerError, utils.CodeServerError},
	}
	for _, c := range cases {
		var httpErr *utils.HTTPError
		require.True(t, errors.As(c.err, &httpErr))
		assert.Equal(t, c.status, httpErr.Status)
		assert.Equal(t, c.code, httpErr.Code)
		assert.Equal(t, "x", httpErr.Error())
	}
}

func TestHTTPErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &utils.HTTPError{Status: 500, Code: utils.CodeServerError, Message: "Internal server error", Cause: cause}
	assert.ErrorIs(t, err, cause)
}
