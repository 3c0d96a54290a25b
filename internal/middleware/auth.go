package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"imagegen-backend/internal/models"
)

const (
	UserIDKey   = "user_id"
	TokenCookie = "token"
)

// AuthMiddleware accepts an HS256 session token from the Authorization
// header or the token cookie and stores the numeric sub claim under UserIDKey.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			unauthorized(c)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if secret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			unauthorized(c)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c)
			return
		}
		userID, ok := subject(claims["sub"])
		if !ok {
			unauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the caller id set by AuthMiddleware.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(UserIDKey)
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// subject reads sub as a positive integer, either a JSON number or a
// numeric string.
func subject(v any) (int64, bool) {
	var id int64
	switch sub := v.(type) {
	case float64:
		if sub != float64(int64(sub)) {
			return 0, false
		}
		id = int64(sub)
	case json.Number:
		n, err := sub.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
}
