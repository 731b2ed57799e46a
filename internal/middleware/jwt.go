package middleware

import (
	"context"  // Store lookups
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"pix_gateway/internal/domain" // Importing domain models
	"pix_gateway/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middlewares
const (
	CtxUserID       = "userID"
	CtxUser         = "user"
	CtxAPIGenerated = "apiGenerated"
)

// UserLoader fetches the current state of a user
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*domain.User, error)
}

// JWTAuthMiddleware validates session tokens and loads the caller from the store
func JWTAuthMiddleware(secret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		user, err := users.GetUser(c.Request.Context(), claims.UserID) // Current status and role
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			utils.AbortWithError(c, err)
			return
		}
		c.Set(CtxUserID, user.ID) // Store userID in context
		c.Set(CtxUser, user)      // Store the loaded user
		c.Next()                  // Proceed to the next handler
	}
}

// CurrentUser returns the user loaded by an auth middleware
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}
