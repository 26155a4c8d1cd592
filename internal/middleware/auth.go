package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/flicky/cocktail-api/internal/model"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// AuthMiddleware rejects requests without a valid bearer token carrying a
// positive numeric userId claim.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(header[7:], claims, func(*jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID := userIDFromClaims(claims)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		role, _ := claims["role"].(string)
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// userIDFromClaims accepts the id as a decimal string or a JSON number and
// returns 0 when it is missing or malformed.
func userIDFromClaims(claims jwt.MapClaims) int64 {
	switch v := claims["userId"].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0
		}
		return id
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return 0
		}
		return int64(v)
	default:
		return 0
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// GetUserID returns 0 for unauthenticated requests.
func GetUserID(c *gin.Context) int64 {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(int64)
	return uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(ctxUserRole)
	r, _ := role.(string)
	return r
}
