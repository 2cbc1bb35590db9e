package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", ExpiryHours: 1})
	actor := model.Actor{UserID: uuid.New(), Email: "pat@example.com", Role: model.RolePatient}

	token, err := svc.GenerateToken(actor)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, got.UserID)
	assert.Equal(t, actor.Email, got.Email)
	assert.Equal(t, model.RolePatient, got.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(Config{Secret: "secret-a"})
	verifier := NewService(Config{Secret: "secret-b"})

	token, err := issuer.GenerateToken(model.Actor{UserID: uuid.New(), Role: model.RoleStaff})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"})
	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}
