package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pantry-server/src/config"
	"pantry-server/src/database"
	"pantry-server/src/repositories"
	"pantry-server/src/services"
	"pantry-server/src/utils"
	aws_handler "pantry-server/src/utils/aws"
	redis_utils "pantry-server/src/utils/redis"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Logger       *logrus.Logger
	SyncService  services.SyncServiceI
	AuthService  services.AuthServiceI
	ImageService services.ImageServiceI
	Tokens       services.TokenVerifier

	requestTimeout   time.Duration
	maxJSONBodyBytes int64
	maxUploadBytes   int64
	closers          []func()
}

// Dependencies are the collaborators a Handler is assembled from.
type Dependencies struct {
	SyncRepository repositories.SyncRepository
	UserRepository repositories.UserRepository
	SnapshotCache  services.SnapshotCache
	Storage        services.ObjectStorage
	Clock          clockwork.Clock
	JWTSecret      string
}

// NewHandler wires the production stack: Postgres, the configured snapshot
// cache, S3 storage and, when configured, the JWT secret from Secrets Manager.
func NewHandler(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Handler, error) {
	db, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers := []func(){db.Close}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	deps := Dependencies{
		SyncRepository: repositories.NewSyncRepository(db),
		UserRepository: repositories.NewUserRepository(db),
		Clock:          clockwork.NewRealClock(),
		JWTSecret:      cfg.Auth.JWTSecret,
	}

	switch cfg.Cache.Driver {
	case config.CacheMemory:
		deps.SnapshotCache = services.NewMemorySnapshotCache(cfg.Cache.TTL)
	case config.CacheRedis:
		redisHandler, err := redis_utils.NewRedisHandler(ctx, cfg.Databases.Redis)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() { _ = redisHandler.Close() })
		deps.SnapshotCache = services.NewRedisSnapshotCache(redisHandler, cfg.Cache.TTL)
	}

	awsHandler, err := aws_handler.NewAWSHandler(cfg)
	if err != nil {
		closeAll()
		return nil, err
	}
	if awsHandler.ObjectStorage != nil {
		deps.Storage = awsHandler.ObjectStorage
	} else {
		logger.Warn("storage bucket not configured, image uploads will fail")
	}
	if awsHandler.SecretManager != nil {
		secret, err := awsHandler.SecretManager.GetSecretValue(ctx, cfg.Auth.JWTSecretID)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to load jwt secret: %w", err)
		}
		deps.JWTSecret = secret
	}

	h := NewHandlerWithDependencies(cfg, logger, deps)
	h.closers = closers
	return h, nil
}

func NewHandlerWithDependencies(cfg *config.Config, logger *logrus.Logger, deps Dependencies) *Handler {
	tokens := services.NewTokenService(deps.JWTSecret, cfg.Auth.TokenLifetime, deps.Clock)
	hasher := services.NewPasswordHasher(cfg.Auth.BcryptCost)

	return &Handler{
		Logger:           logger,
		SyncService:      services.NewSyncService(deps.SyncRepository, deps.SnapshotCache, deps.Clock),
		AuthService:      services.NewAuthService(deps.UserRepository, hasher, tokens, cfg.Auth.MinPasswordLength),
		ImageService:     services.NewImageService(deps.Storage, cfg.Images.MaxResizeWidth),
		Tokens:           tokens,
		requestTimeout:   cfg.Service.RequestTimeout,
		maxJSONBodyBytes: cfg.Service.MaxJSONBodyBytes,
		maxUploadBytes:   cfg.Images.MaxUploadBytes,
	}
}

// Close releases the connections opened by NewHandler.
func (h *Handler) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
	h.closers = nil
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *utils.HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		utils.WriteError(w, utils.NewHTTPError(http.StatusGatewayTimeout, utils.CodeServerError, "Request timed out"))
	case errors.As(err, &httpErr):
		utils.WriteError(w, httpErr)
	default:
		h.loggerFor(r).WithError(err).Error("unhandled error")
		utils.WriteError(w, err)
	}
}

func (h *Handler) loggerFor(r *http.Request) logrus.FieldLogger {
	if r == nil {
		return h.Logger
	}
	return utils.LoggerFromContext(r.Context())
}

// decodeJSON reads a size-limited JSON body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := r.Body
	if h.maxJSONBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxJSONBodyBytes)
	}

	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		return utils.PayloadTooLarge("Request body too large")
	case errors.Is(err, io.EOF):
		return utils.BadRequest("Request body is required")
	case errors.As(err, &typeErr):
		return utils.BadRequest(fmt.Sprintf("Invalid value for field %s", typeErr.Field))
	default:
		return utils.BadRequest("Invalid JSON body")
	}
}
