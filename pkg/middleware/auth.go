package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/saimali7/tour-crm/pkg/common"
)

const (
	// UserIDKey is the gin context key for the authenticated user
	UserIDKey = "user_id"
	// OrgIDKey is the gin context key for the tenant organization
	OrgIDKey = "org_id"
)

// Claims is the JWT payload. Every token carries the tenant scope; all
// dispatch queries and mutations are constrained by org_id.
type Claims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores tenant context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(OrgIDKey, claims.OrgID)
		c.Next()
	}
}

// GetUserID extracts the authenticated user ID from gin context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, common.NewUnauthorizedError("no authenticated user")
	}
	idStr, ok := value.(string)
	if !ok {
		return uuid.Nil, common.NewUnauthorizedError("invalid user context")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, common.NewUnauthorizedError("invalid user context")
	}
	return id, nil
}

// GetOrgID extracts the tenant organization ID from gin context
func GetOrgID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(OrgIDKey)
	if !exists {
		return uuid.Nil, common.NewUnauthorizedError("no tenant context")
	}
	idStr, ok := value.(string)
	if !ok {
		return uuid.Nil, common.NewUnauthorizedError("invalid tenant context")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, common.NewUnauthorizedError("invalid tenant context")
	}
	return id, nil
}
