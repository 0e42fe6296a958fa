package middleware

import (
	"net/http"
	"strings"
	"time"

	"tablebook/internal/shared/config"
	"tablebook/internal/shared/utils/response"
	"tablebook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Context keys set by JWTAuth.
const (
	ActorIDKey   = "actor_id"
	ActorRoleKey = "actor_role"
)

// Roles accepted on operator routes.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// JWTAuth validates an HS256 bearer token and stores the operator id and role in the
// request context. The id is read from "sub", falling back to "user_id".
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	appLogger := logger.GetDefault()
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})
		if err != nil || !token.Valid {
			appLogger.LogAuthFailure(c.Request.Context(), "invalid or expired token", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token claims", nil, nil)
			c.Abort()
			return
		}
		actor, _ := claims["sub"].(string)
		if actor == "" {
			actor, _ = claims["user_id"].(string)
		}
		if actor == "" {
			appLogger.LogAuthFailure(c.Request.Context(), "token has no subject", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "token has no subject", nil, nil)
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)

		c.Set(ActorIDKey, actor)
		c.Set(ActorRoleKey, role)
		c.Next()
	}
}

// RequireRoles middleware checks if the operator has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ActorRoleKey)
		if role == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "role not found in context", nil, nil)
			c.Abort()
			return
		}

		for _, r := range requiredRoles {
			if role == r {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// ActorID returns the authenticated operator id, or "" for anonymous requests.
func ActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}

// RequestLogger logs every request with a request id, which is echoed in X-Request-ID.
func RequestLogger(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		l.WithRequestID(requestID).LogHTTPRequest(c, time.Since(start))
	}
}
