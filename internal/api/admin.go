package api

import (
	"context"  // Store calls
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // Input trimming

	"pix_gateway/internal/domain"     // Importing domain models
	"pix_gateway/internal/middleware" // Caller id
	"pix_gateway/internal/store"      // Paging and filters
	"pix_gateway/internal/utils"      // Cache and error helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Percentage rates
	"github.com/sirupsen/logrus"    // Logging library
)

// auditLogLimit is how many audit entries the admin log view returns
const auditLogLimit = 100

// AdminStore is the persistence used by the admin routes
type AdminStore interface {
	ListUsers(ctx context.Context, p store.Page) ([]domain.User, int64, error)
	SearchTransactions(ctx context.Context, f store.TransactionFilter, p store.Page) ([]domain.Transaction, int64, error)
	SetUserStatus(ctx context.Context, id uint, status domain.UserStatus) error
	SetUserRates(ctx context.Context, id uint, r domain.RateProfile) error
	SetAllowedLoginIP(ctx context.Context, id uint, ip string) error
	SetUserPhone(ctx context.Context, id uint, phone string) error
	CloseAccount(ctx context.Context, id uint) error
	ListAPILogs(ctx context.Context, limit int) ([]domain.APILog, error)
}

// StatusRequest approves, blocks or re-opens an account
type StatusRequest struct {
	Status domain.UserStatus `json:"status" binding:"required"` // pending, active or blocked
}

// RatesRequest is a per-user rate override
type RatesRequest struct {
	DepositPercent     decimal.Decimal `json:"depositPercent"`     // Percentage of the gross deposit
	DepositFixedCents  int64           `json:"depositFixedCents"`  // Flat deposit fee
	WithdrawFixedCents int64           `json:"withdrawFixedCents"` // Flat withdrawal fee
}

// SecurityRequest sets or clears the login IP restriction
type SecurityRequest struct {
	AllowedLoginIP string `json:"allowedLoginIp"` // Empty clears the restriction
}

// PhoneRequest replaces a user's contact phone
type PhoneRequest struct {
	Phone string `json:"phone" binding:"required,max=32"` // Contact phone
}

// pageFromQuery reads page/page_size the way every admin listing does
func pageFromQuery(c *gin.Context) store.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return store.Page{Page: page, PageSize: size}.Normalize()
}

// userIDParam parses the :id path segment
func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return uint(id), true
}

// ListUsersHandler returns one page of users
func ListUsersHandler(admin AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFromQuery(c)
		users, total, err := admin.ListUsers(c.Request.Context(), page)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users":       users,                  // List of users
			"page":        page.Page,              // Current page
			"page_size":   page.PageSize,          // Page size
			"total":       total,                  // Total number of users
			"total_pages": page.TotalPages(total), // Total pages
		})
	}
}

// ListAllTransactionsHandler returns transactions filtered by user_id, direction or status
func ListAllTransactionsHandler(admin AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter store.TransactionFilter
		if v := c.Query("user_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
				return
			}
			filter.UserID = uint(id)
		}
		filter.Direction = domain.Direction(c.Query("direction"))
		filter.Status = domain.TxStatus(c.Query("status"))

		page := pageFromQuery(c)
		txs, total, err := admin.SearchTransactions(c.Request.Context(), filter, page)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": txs,                    // List of transactions
			"page":         page.Page,              // Current page
			"page_size":    page.PageSize,          // Page size
			"total":        total,                  // Total number of transactions
			"total_pages":  page.TotalPages(total), // Total pages
		})
	}
}

// UpdateUserStatusHandler is the approval action for pending accounts
func UpdateUserStatusHandler(admin AdminStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userIDParam(c)
		if !ok {
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be pending, active or blocked"})
			return
		}
		if err := admin.SetUserStatus(c.Request.Context(), id, req.Status); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  id,
			"status":   req.Status,
			"admin_id": c.GetUint(middleware.CtxUserID),
		}).Info("User status changed")
		invalidate(c, rdb, id)
		c.JSON(http.StatusOK, gin.H{"message": "Status updated", "status": req.Status})
	}
}

// UpdateUserRatesHandler stores a rate override for one user
func UpdateUserRatesHandler(admin AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userIDParam(c)
		if !ok {
			return
		}
		var req RatesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.DepositPercent.IsNegative() || req.DepositPercent.GreaterThan(decimal.NewFromInt(100)) ||
			req.DepositFixedCents < 0 || req.WithdrawFixedCents < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rates must be non-negative and percent at most 100"})
			return
		}
		rates := domain.RateProfile{
			DepositPercent:     req.DepositPercent,
			DepositFixedCents:  req.DepositFixedCents,
			WithdrawFixedCents: req.WithdrawFixedCents,
		}
		if err := admin.SetUserRates(c.Request.Context(), id, rates); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":         id,
			"deposit_percent": rates.DepositPercent.String(),
			"deposit_fixed":   rates.DepositFixedCents,
			"withdraw_fixed":  rates.WithdrawFixedCents,
		}).Info("User rates changed")
		c.JSON(http.StatusOK, gin.H{"message": "Rates updated", "rates": rates})
	}
}

// UpdateUserSecurityHandler sets the session login IP restriction
func UpdateUserSecurityHandler(admin AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userIDParam(c)
		if !ok {
			return
		}
		var req SecurityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.AllowedLoginIP != "" && !validIP(req.AllowedLoginIP) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid IP address"})
			return
		}
		if err := admin.SetAllowedLoginIP(c.Request.Context(), id, req.AllowedLoginIP); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Security settings updated", "allowedLoginIp": req.AllowedLoginIP})
	}
}

// UpdateUserPhoneHandler edits the contact phone
func UpdateUserPhoneHandler(admin AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userIDParam(c)
		if !ok {
			return
		}
		var req PhoneRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone is required"})
			return
		}
		phone := strings.TrimSpace(req.Phone)
		if err := admin.SetUserPhone(c.Request.Context(), id, phone); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Phone updated", "phone": phone})
	}
}

// CloseAccountHandler blocks a user and revokes their API access; the
// ledger history is kept
func CloseAccountHandler(admin AdminStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userIDParam(c)
		if !ok {
			return
		}
		staffID := c.GetUint(middleware.CtxUserID)
		if id == staffID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot close your own account"})
			return
		}
		if err := admin.CloseAccount(c.Request.Context(), id); err != nil {
			utils.AbortWithError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": id, "admin_id": staffID}).Info("Account closed")
		invalidate(c, rdb, id)
		c.JSON(http.StatusOK, gin.H{"message": "Account closed"})
	}
}

// ListAPILogsHandler returns the newest programmatic-API audit entries
func ListAPILogsHandler(admin AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := admin.ListAPILogs(c.Request.Context(), auditLogLimit)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if logs == nil {
			logs = []domain.APILog{}
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
