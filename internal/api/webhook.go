package api

import (
	"io"       // Body reading
	"net/http" // HTTP status codes

	"pix_gateway/internal/service" // Notification parsing
	"pix_gateway/internal/utils"   // Cache and error helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// maxWebhookBody caps a processor notification
const maxWebhookBody = 1 << 20

// WebhookHandler reconciles a processor notification. It answers 2xx only
// once the outcome is committed; anything else asks the sender to retry.
func WebhookHandler(payments Payments, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
			return
		}
		n, err := service.ParseNotification(raw)
		if err != nil {
			logrus.WithFields(logrus.Fields{"ip": utils.ClientIP(c), "error": err.Error()}).Warn("Webhook rejected")
			utils.AbortWithError(c, err)
			return
		}
		res, err := payments.Reconcile(c.Request.Context(), n)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if res.Outcome == service.OutcomeApproved || res.Outcome == service.OutcomeCancelled {
			invalidate(c, rdb, res.Transaction.UserID)
		}
		c.JSON(http.StatusOK, gin.H{
			"received":      true,
			"outcome":       res.Outcome,
			"transactionId": res.Transaction.OurID,
			"status":        res.Transaction.Status,
		})
	}
}
