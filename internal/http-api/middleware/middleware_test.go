package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth accepts "good" and reports "old" as expired.
type stubAuth struct{}

func (stubAuth) Register(context.Context, *models.User, string) error { return nil }
func (stubAuth) Login(context.Context, string, string) (*service.TokenPair, *models.User, error) {
	return nil, nil, nil
}
func (stubAuth) Refresh(context.Context, string) (*service.TokenPair, error) { return nil, nil }
func (stubAuth) Logout(context.Context, string) error { return nil }
func (stubAuth) ValidateToken(token string) (*service.Claims, error) {
	switch token {
	case "good":
		return &service.Claims{UserID: "u-1", Username: "alice", Role: "user"}, nil
	case "old":
		return nil, service.ErrExpiredToken
	}
	return nil, service.ErrInvalidToken
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		c.String(http.StatusOK, "user=%s", UserID(c))
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(stubAuth{}))

	w := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization header")

	w = do(r, "Token good")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")

	w = do(r, "Bearer old")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")

	w = do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user=u-1", w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := newRouter(OptionalAuth(stubAuth{}))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user=", w.Body.String())

	w = do(r, "Bearer good")
	assert.Equal(t, "user=u-1", w.Body.String())

	w = do(r, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	// other clients have their own bucket
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(time.Hour)
	rl.Cleanup()
	assert.Empty(t, rl.limiters)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	r := newRouter(rl.Middleware())

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestUsernameValidator(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type payload struct {
		Username string `json:"username" binding:"required,username"`
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	for name, want := range map[string]int{
		"alice":       http.StatusOK,
		"a.b@c+d-e_f": http.StatusOK,
		"has space":   http.StatusBadRequest,
		"semi;colon":  http.StatusBadRequest,
		"slash/ed":    http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"`+name+`"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, name)
	}
}
