package services

import (
	"errors"
	"time"

	"pantry-server/src/models"

	"github.com/go-chi/jwtauth"
	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/jwx/jwt"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	claimUserID = "userId"
	claimEmail  = "email"
)

type TokenVerifier interface {
	Verify(token string) (*models.Identity, error)
}

// TokenService issues and verifies HS256 bearer tokens carrying the caller identity.
type TokenService struct {
	auth     *jwtauth.JWTAuth
	lifetime time.Duration
	clock    clockwork.Clock
}

func NewTokenService(secret string, lifetime time.Duration, clock clockwork.Clock) *TokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{
		auth:     jwtauth.New("HS256", []byte(secret), nil),
		lifetime: lifetime,
		clock:    clock,
	}
}

func (s *TokenService) Issue(identity models.Identity) (string, error) {
	now := s.clock.Now()
	claims := map[string]interface{}{
		claimUserID: identity.UserID,
		claimEmail:  identity.Email,
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(s.lifetime))

	_, token, err := s.auth.Encode(claims)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *TokenService) Verify(token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := s.auth.Decode(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if err := jwt.Validate(parsed, jwt.WithClock(s.clock)); err != nil {
		return nil, ErrInvalidToken
	}

	claims := parsed.PrivateClaims()
	userID, _ := claims[claimUserID].(string)
	email, _ := claims[claimEmail].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	return &models.Identity{UserID: userID, Email: email}, nil
}
