package handlers

import (
	"context"
	"net/http"
	"time"

	"pantry-server/src/models"
	"pantry-server/src/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/sirupsen/logrus"
)

type identityKey struct{}

func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*models.Identity)
	return identity, ok && identity != nil
}

// Authenticator rejects requests without a valid bearer token.
func (h *Handler) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.Tokens.Verify(jwtauth.TokenFromHeader(r))
		if err != nil {
			utils.WriteError(w, utils.Unauthorized("Unauthorized - invalid or expired token"))
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		logger := utils.LoggerFromContext(ctx).WithField("userId", identity.UserID)
		ctx = utils.WithLogger(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger puts a request scoped logger in the context and logs every response.
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := h.Logger.WithFields(logrus.Fields{
			"requestId": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(utils.WithLogger(r.Context(), entry)))

		entry.WithFields(logrus.Fields{
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		}).Info("request completed")
	})
}

// userID is only called behind Authenticator.
func userID(r *http.Request) string {
	identity, _ := IdentityFromContext(r.Context())
	if identity == nil {
		return ""
	}
	return identity.UserID
}
