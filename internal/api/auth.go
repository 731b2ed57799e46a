package api

import (
	"context"  // Service calls
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"pix_gateway/internal/domain"     // Importing domain models
	"pix_gateway/internal/middleware" // Current user
	"pix_gateway/internal/service"    // Account rules
	"pix_gateway/internal/utils"      // JWT and error helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AccountService registers and authenticates merchants
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password, ip string) (*domain.User, error)
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`    // Login email
	Name     string `json:"name" binding:"required"`     // Display and payer name
	Password string `json:"password" binding:"required"` // Plain password, hashed by the service
	Document string `json:"document"`                    // CPF/CNPJ
	Phone    string `json:"phone"`                       // Contact phone
}

// LoginRequest is the session login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Login email
	Password string `json:"password" binding:"required"` // Plain password
}

// AuthResponse carries a session token
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Logged-in user
}

// RegisterHandler creates a pending account awaiting admin approval
func RegisterHandler(accounts AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Register(c.Request.Context(), service.RegisterInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Document: req.Document,
			Phone:    req.Phone,
		})
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Account created, awaiting approval", "user": user})
	}
}

// LoginHandler authenticates a user and returns a session token
func LoginHandler(accounts AccountService, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ip := utils.ClientIP(c)
		user, err := accounts.Login(c.Request.Context(), req.Email, req.Password, ip)
		if err != nil {
			logrus.WithFields(logrus.Fields{"email": req.Email, "ip": ip, "error": err.Error()}).Warn("Login rejected")
			utils.AbortWithError(c, err)
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// MeHandler returns the caller and the rates that apply to them
func MeHandler(base domain.RateProfile) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "effectiveRates": user.EffectiveRates(base)})
	}
}
