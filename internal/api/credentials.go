package api

import (
	"context"  // Service calls
	"errors"   // Error classification
	"net"      // IP validation
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation

	"pix_gateway/internal/domain"     // Importing domain models
	"pix_gateway/internal/middleware" // Current user
	"pix_gateway/internal/utils"      // Error helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CredentialIssuer mints programmatic credentials
type CredentialIssuer interface {
	GenerateCredential(ctx context.Context, userID uint, webhookURL string) (*domain.Credential, string, error)
}

// CredentialStore reads and removes credentials and allow-listed IPs
type CredentialStore interface {
	GetCredentialByUser(ctx context.Context, userID uint) (*domain.Credential, error)
	DeleteCredentials(ctx context.Context, userID uint) (int64, error)
	ListAllowedIPs(ctx context.Context, userID uint) ([]domain.AllowedIP, error)
	AddAllowedIP(ctx context.Context, ip *domain.AllowedIP) error
	DeleteAllowedIP(ctx context.Context, userID, id uint) error
}

// GenerateCredentialRequest optionally carries the merchant's webhook URL
type GenerateCredentialRequest struct {
	WebhookURL string `json:"webhookUrl"` // Where the merchant wants notifications
}

// AllowedIPRequest adds an address to the allow-list
type AllowedIPRequest struct {
	IP string `json:"ip" binding:"required"` // IPv4 or IPv6 address
}

func validIP(ip string) bool {
	return net.ParseIP(strings.TrimSpace(ip)) != nil
}

// GenerateCredentialHandler replaces the caller's credential; the secret is shown once
func GenerateCredentialHandler(issuer CredentialIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req GenerateCredentialRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
		}
		cred, secret, err := issuer.GenerateCredential(c.Request.Context(), user.ID, strings.TrimSpace(req.WebhookURL))
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"clientId":     cred.ClientID,
			"clientSecret": secret,
			"webhookUrl":   cred.WebhookURL,
			"createdAt":    cred.CreatedAt,
		})
	}
}

// GetCredentialHandler reports whether the caller has a credential, never the secret
func GetCredentialHandler(creds CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		cred, err := creds.GetCredentialByUser(c.Request.Context(), user.ID)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"hasCredentials": false})
			return
		}
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"hasCredentials": true,
			"clientId":       cred.ClientID,
			"webhookUrl":     cred.WebhookURL,
			"createdAt":      cred.CreatedAt,
		})
	}
}

// DeleteCredentialHandler revokes the caller's credentials
func DeleteCredentialHandler(creds CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		n, err := creds.DeleteCredentials(c.Request.Context(), user.ID)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "deleted": n}).Info("Credentials revoked")
		c.JSON(http.StatusOK, gin.H{"message": "Credentials revoked", "deleted": n})
	}
}

// ListAllowedIPsHandler returns the caller's programmatic allow-list
func ListAllowedIPsHandler(creds CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ips, err := creds.ListAllowedIPs(c.Request.Context(), user.ID)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if ips == nil {
			ips = []domain.AllowedIP{}
		}
		c.JSON(http.StatusOK, gin.H{"ips": ips})
	}
}

// AddAllowedIPHandler appends an address; duplicates are a conflict
func AddAllowedIPHandler(creds CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AllowedIPRequest
		if err := c.ShouldBindJSON(&req); err != nil || !validIP(req.IP) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid IP address"})
			return
		}
		entry := &domain.AllowedIP{UserID: user.ID, IP: strings.TrimSpace(req.IP)}
		if err := creds.AddAllowedIP(c.Request.Context(), entry); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// DeleteAllowedIPHandler removes one of the caller's addresses
func DeleteAllowedIPHandler(creds CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}
		if err := creds.DeleteAllowedIP(c.Request.Context(), user.ID, uint(id)); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
