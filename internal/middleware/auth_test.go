package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiocare/booking-api/internal/handler"
	"github.com/fisiocare/booking-api/internal/model"
	"github.com/fisiocare/booking-api/internal/service/auth"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *auth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := auth.NewService(auth.Config{Secret: "test-secret"})
	m := NewAuthMiddleware(authSvc)

	r := gin.New()
	r.Use(m.Authenticate())
	r.GET("/me", func(c *gin.Context) {
		actor, _ := handler.Actor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role})
	})

	staff := r.Group("/staff")
	staff.Use(m.RequireStaff())
	staff.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r, authSvc
}

func doAuthed(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	r, _ := newAuthTestRouter(t)
	w := doAuthed(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	r, _ := newAuthTestRouter(t)
	w := doAuthed(r, "/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateSetsActor(t *testing.T) {
	r, authSvc := newAuthTestRouter(t)

	token, err := authSvc.GenerateToken(model.Actor{UserID: uuid.New(), Role: model.RolePatient})
	require.NoError(t, err)

	w := doAuthed(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireStaffRejectsPatient(t *testing.T) {
	r, authSvc := newAuthTestRouter(t)

	token, err := authSvc.GenerateToken(model.Actor{UserID: uuid.New(), Role: model.RolePatient})
	require.NoError(t, err)

	w := doAuthed(r, "/staff/ping", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireStaffAllowsAdmin(t *testing.T) {
	r, authSvc := newAuthTestRouter(t)

	token, err := authSvc.GenerateToken(model.Actor{UserID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)

	w := doAuthed(r, "/staff/ping", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
