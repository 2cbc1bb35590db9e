package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

// Sign-in and sign-up live with the external identity provider; this service
// only validates the tokens it issues and extracts the identity claims the
// booking core needs.
type Config struct {
	Secret      string
	ExpiryHours int
}

type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// ValidateToken parses and verifies a bearer token and returns the actor it
// asserts. Tokens without a known role are rejected; authorization decisions
// downstream rely on the role claim being well-formed.
func (s *Service) ValidateToken(tokenString string) (*model.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperrors.Unauthorized("invalid token claims")
	}
	if claims.UserID == uuid.Nil {
		return nil, apperrors.Unauthorized("token missing user id")
	}

	switch claims.Role {
	case model.RolePatient, model.RoleStaff, model.RoleAdmin:
	default:
		return nil, apperrors.Unauthorized("token missing role")
	}

	return &model.Actor{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GenerateToken issues a token for the given actor. Used by tests and local
// tooling; production tokens come from the identity provider.
func (s *Service) GenerateToken(actor model.Actor) (string, error) {
	expiry := time.Duration(s.cfg.ExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	claims := &Claims{
		UserID: actor.UserID,
		Email:  actor.Email,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
