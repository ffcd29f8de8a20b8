package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pantry-server/src/models"
	"pantry-server/src/repositories"
	"pantry-server/src/schemas"
	"pantry-server/src/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceI interface {
	Signup(ctx context.Context, req *schemas.SignupRequest) (*schemas.AuthResponse, error)
	Login(ctx context.Context, req *schemas.LoginRequest) (*schemas.AuthResponse, error)
	GetCurrentUser(ctx context.Context, userID string) (*schemas.UserResponse, error)
	UpdateUser(ctx context.Context, userID string, req *schemas.UpdateUserRequest) (*schemas.UserResponse, error)
}

type AuthService struct {
	userRepository    repositories.UserRepository
	hasher            *PasswordHasher
	tokens            *TokenService
	minPasswordLength int
}

func NewAuthService(userRepository repositories.UserRepository, hasher *PasswordHasher, tokens *TokenService, minPasswordLength int) *AuthService {
	return &AuthService{
		userRepository:    userRepository,
		hasher:            hasher,
		tokens:            tokens,
		minPasswordLength: minPasswordLength,
	}
}

func (s *AuthService) Signup(ctx context.Context, req *schemas.SignupRequest) (*schemas.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, utils.BadRequest("Email and password are required")
	}
	if len(req.Password) < s.minPasswordLength {
		return nil, utils.BadRequest(fmt.Sprintf("Password must be at least %d characters", s.minPasswordLength))
	}

	existing, err := s.userRepository.GetByEmail(ctx, email)
	if err != nil {
		return nil, authServerError(ctx, "signup", err)
	}
	if existing != nil {
		return nil, utils.Conflict("User already exists")
	}

	hash, err := s.hashPassword(ctx, "signup", req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Password: hash,
	}
	if err := s.userRepository.Create(ctx, user); err != nil {
		// Lost a race against a concurrent signup for the same email.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.Conflict("User already exists")
		}
		return nil, authServerError(ctx, "signup", err)
	}

	utils.LoggerFromContext(ctx).WithField("userId", user.ID).Info("user signed up")
	return s.authResponse(ctx, "signup", user)
}

func (s *AuthService) Login(ctx context.Context, req *schemas.LoginRequest) (*schemas.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, utils.BadRequest("Email and password are required")
	}

	user, err := s.userRepository.GetByEmail(ctx, email)
	if err != nil {
		return nil, authServerError(ctx, "login", err)
	}
	if user == nil {
		return nil, utils.Unauthorized("Invalid credentials")
	}

	ok, err := s.hasher.Compare(user.Password, req.Password)
	if err != nil {
		return nil, authServerError(ctx, "login", err)
	}
	if !ok {
		return nil, utils.Unauthorized("Invalid credentials")
	}

	return s.authResponse(ctx, "login", user)
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*schemas.UserResponse, error) {
	user, err := s.userRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, authServerError(ctx, "me", err)
	}
	if user == nil {
		return nil, utils.NotFound("User not found")
	}
	return toUserResponse(user), nil
}

func (s *AuthService) UpdateUser(ctx context.Context, userID string, req *schemas.UpdateUserRequest) (*schemas.UserResponse, error) {
	hasCurrent := req.CurrentPassword != ""
	hasNew := req.NewPassword != ""
	if hasCurrent != hasNew {
		return nil, utils.BadRequest("Both currentPassword and newPassword are required to change password")
	}
	if hasNew && len(req.NewPassword) < s.minPasswordLength {
		return nil, utils.BadRequest(fmt.Sprintf("New password must be at least %d characters", s.minPasswordLength))
	}

	avatarSet, avatarURL, err := parseAvatarURL(req.AvatarURL)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, authServerError(ctx, "update user", err)
	}
	if user == nil {
		return nil, utils.NotFound("User not found")
	}

	if hasNew {
		ok, err := s.hasher.Compare(user.Password, req.CurrentPassword)
		if err != nil {
			return nil, authServerError(ctx, "update user", err)
		}
		if !ok {
			return nil, utils.Unauthorized("Current password is incorrect")
		}
		hash, err := s.hashPassword(ctx, "update user", req.NewPassword)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	if avatarSet {
		user.AvatarURL = avatarURL
	}

	if err := s.userRepository.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.NotFound("User not found")
		}
		return nil, authServerError(ctx, "update user", err)
	}

	// Answer with what was actually stored.
	return s.GetCurrentUser(ctx, userID)
}

func (s *AuthService) hashPassword(ctx context.Context, operation, password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", utils.BadRequest("Password must be at most 72 bytes")
	}
	if err != nil {
		return "", authServerError(ctx, operation, err)
	}
	return hash, nil
}

func (s *AuthService) authResponse(ctx context.Context, operation string, user *models.User) (*schemas.AuthResponse, error) {
	token, err := s.tokens.Issue(models.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, authServerError(ctx, operation, err)
	}
	return &schemas.AuthResponse{
		AccessToken: token,
		User: schemas.AuthUser{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}

// parseAvatarURL tells an absent field (keep) from null (clear) and a string (set).
func parseAvatarURL(raw json.RawMessage) (bool, *string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false, nil, nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return true, nil, nil
	}
	var url string
	if err := json.Unmarshal(trimmed, &url); err != nil {
		return false, nil, utils.BadRequest("avatarUrl must be a string or null")
	}
	return true, &url, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(user *models.User) *schemas.UserResponse {
	return &schemas.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}

func authServerError(ctx context.Context, operation string, err error) error {
	utils.LoggerFromContext(ctx).WithError(err).WithField("operation", operation).Error("auth operation failed")
	return &utils.HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    utils.CodeServerError,
		Message: "Internal server error",
		Cause:   err,
	}
}
