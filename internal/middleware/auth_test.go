package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"imagegen-backend/internal/middleware"
)

const secret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func newRouter(t *testing.T, wantUser int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AuthMiddleware(secret))
	router.GET("/test", func(c *gin.Context) {
		assert.Equal(t, wantUser, middleware.UserID(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	router := newRouter(t, 0)

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestAuthMiddleware_InvalidTokens(t *testing.T) {
	router := newRouter(t, 0)

	tests := map[string]string{
		"garbage":        "Bearer invalid-token",
		"wrong secret":   "Bearer " + sign(t, "other-secret", jwt.MapClaims{"sub": 1}),
		"expired":        "Bearer " + sign(t, secret, jwt.MapClaims{"sub": 1, "exp": time.Now().Add(-time.Hour).Unix()}),
		"non numeric":    "Bearer " + sign(t, secret, jwt.MapClaims{"sub": "user-123"}),
		"missing sub":    "Bearer " + sign(t, secret, jwt.MapClaims{"email": "a@b.c"}),
		"wrong scheme":   "Basic " + sign(t, secret, jwt.MapClaims{"sub": 1}),
		"fractional sub": "Bearer " + sign(t, secret, jwt.MapClaims{"sub": 1.5}),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	router := newRouter(t, 42)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, secret, jwt.MapClaims{"sub": 42}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_ValidCookie(t *testing.T) {
	router := newRouter(t, 7)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: sign(t, secret, jwt.MapClaims{"sub": "7"})})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
