package middleware

import (
	"bytes"         // Body replay
	"context"       // Service calls
	"encoding/json" // Audit body decoding
	"io"            // Body reading

	"pix_gateway/internal/domain" // Importing domain models
	"pix_gateway/internal/utils"  // Client IP and error responses

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// maxAuditBody caps how much of a request body is read for the audit log
const maxAuditBody = 64 << 10

// ClientAuthenticator checks programmatic credentials and audits calls
type ClientAuthenticator interface {
	AuthenticateClient(ctx context.Context, clientID, secret, ip string) (*domain.User, error)
	RecordAPICall(ctx context.Context, userID uint, method, endpoint, ip string, body map[string]any) error
}

// APIKeyMiddleware authenticates X-Client-ID/X-Client-Secret and appends an
// audit entry before the handler runs
func APIKeyMiddleware(auth ClientAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.ClientIP(c)
		user, err := auth.AuthenticateClient(c.Request.Context(), c.GetHeader("X-Client-ID"), c.GetHeader("X-Client-Secret"), ip)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"ip":        ip,
				"client_id": c.GetHeader("X-Client-ID"),
				"error":     err.Error(),
			}).Warn("Programmatic call rejected")
			utils.AbortWithError(c, err)
			return
		}

		var body map[string]any
		if c.Request.Body != nil {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			if err != nil {
				utils.AbortWithError(c, err)
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(raw)) // Let the handler bind it again
			_ = json.Unmarshal(raw, &body)                     // Non-JSON bodies are logged empty
		}
		if err := auth.RecordAPICall(c.Request.Context(), user.ID, c.Request.Method, c.Request.URL.Path, ip, body); err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Set(CtxUserID, user.ID)    // Store userID in context
		c.Set(CtxUser, user)         // Store the credential owner
		c.Set(CtxAPIGenerated, true) // Mark transactions as programmatic
		c.Next()
	}
}
