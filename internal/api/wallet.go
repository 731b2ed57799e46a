package api

import (
	"context"  // Service calls
	"net/http" // HTTP status codes

	"pix_gateway/internal/domain"     // Importing domain models
	"pix_gateway/internal/middleware" // Current user
	"pix_gateway/internal/service"    // Orchestrator types
	"pix_gateway/internal/utils"      // Cache and error helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

const (
	userHistoryLimit  = 50  // Newest transactions shown to a merchant
	adminHistoryLimit = 100 // Newest transactions shown to an admin
)

// Payments is the transaction orchestrator and webhook reconciler
type Payments interface {
	CreateDeposit(ctx context.Context, user *domain.User, in service.DepositInput) (*service.DepositResult, error)
	ExecuteWithdrawal(ctx context.Context, user *domain.User, in service.WithdrawalInput) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error)
	Reconcile(ctx context.Context, n service.Notification) (*service.ReconcileResult, error)
}

// DepositRequest represents a cash-in request
type DepositRequest struct {
	AmountCents   int64  `json:"amountCents" binding:"required,gt=0"` // Gross amount
	Description   string `json:"description"`                         // Shown on the charge
	PayerName     string `json:"payerName"`                           // Defaults to the account name
	PayerDocument string `json:"payerDocument"`                       // Defaults to the account document
}

// WithdrawRequest represents a cash-out request
type WithdrawRequest struct {
	AmountCents        int64  `json:"amountCents" binding:"required,gt=0"`  // Amount paid out
	DestinationKey     string `json:"destinationKey" binding:"required"`     // PIX key
	DestinationKeyType string `json:"destinationKeyType" binding:"required"` // cpf, cnpj, email, phone or random
	Description        string `json:"description"`                           // Free text
}

// BalanceResponse is the cached balance view
type BalanceResponse struct {
	BalanceCents       int64 `json:"balanceCents"`       // Ledger balance
	HeldCents          int64 `json:"heldCents"`          // Reserved by in-flight withdrawals
	AvailableCents     int64 `json:"availableCents"`     // Spendable now
	DailyTxCount       int64 `json:"dailyTxCount"`       // Approved deposits today
	DailyReceivedCents int64 `json:"dailyReceivedCents"` // Net received today
}

// CreateDepositHandler creates a PIX charge and a pending transaction
func CreateDepositHandler(payments Payments, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req DepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := payments.CreateDeposit(c.Request.Context(), user, service.DepositInput{
			AmountCents:   req.AmountCents,
			Description:   req.Description,
			PayerName:     req.PayerName,
			PayerDocument: req.PayerDocument,
			APIGenerated:  c.GetBool(middleware.CtxAPIGenerated),
		})
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		invalidate(c, rdb, user.ID)
		tx := res.Transaction
		c.JSON(http.StatusCreated, gin.H{
			"transactionId":    tx.OurID,
			"externalId":       tx.ExternalID,
			"status":           tx.Status,
			"qrCode":           res.QRCode,
			"copyPasteCode":    res.CopyPasteCode,
			"grossAmountCents": tx.GrossAmountCents,
			"netAmountCents":   tx.NetAmountCents,
			"platformFeeCents": tx.PlatformFeeCents,
		})
	}
}

// WithdrawHandler pays out to a PIX key from the caller's balance
func WithdrawHandler(payments Payments, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req WithdrawRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tx, err := payments.ExecuteWithdrawal(c.Request.Context(), user, service.WithdrawalInput{
			AmountCents:        req.AmountCents,
			DestinationKey:     req.DestinationKey,
			DestinationKeyType: req.DestinationKeyType,
			Description:        req.Description,
			APIGenerated:       c.GetBool(middleware.CtxAPIGenerated),
		})
		// A failed payout may still have released a hold.
		invalidate(c, rdb, user.ID)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactionId":    tx.OurID,
			"externalId":       tx.ExternalID,
			"status":           tx.Status,
			"amountCents":      tx.GrossAmountCents,
			"platformFeeCents": tx.PlatformFeeCents,
		})
	}
}

// ListTransactionsHandler returns the caller's newest transactions; staff
// on session routes see every user's
func ListTransactionsHandler(payments Payments, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		scope, limit := user.ID, userHistoryLimit
		if user.IsStaff() && !c.GetBool(middleware.CtxAPIGenerated) {
			scope, limit = 0, adminHistoryLimit
		}
		ctx := c.Request.Context()
		cacheKey := utils.TransactionsKey(scope)
		var cached []domain.Transaction
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"transactions": cached, "cached": true})
			return
		}
		txs, _, err := utils.FillCache(ctx, rdb, cacheKey, utils.GenKey(scope), utils.CacheTTL,
			func(ctx context.Context) ([]domain.Transaction, error) {
				txs, err := payments.ListTransactions(ctx, scope, limit)
				if txs == nil && err == nil {
					txs = []domain.Transaction{}
				}
				return txs, err
			})
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs, "cached": false})
	}
}

// BalanceHandler returns the caller's balance and daily counters. A miss
// reloads the user so a concurrent invalidation cannot be overwritten by an
// older snapshot.
func BalanceHandler(users middleware.UserLoader, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.BalanceKey(user.ID)
		var cached BalanceResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"balance": cached, "cached": true})
			return
		}
		resp, _, err := utils.FillCache(ctx, rdb, cacheKey, utils.GenKey(user.ID), utils.CacheTTL,
			func(ctx context.Context) (BalanceResponse, error) {
				fresh, err := users.GetUser(ctx, user.ID)
				if err != nil {
					return BalanceResponse{}, err
				}
				return balanceOf(fresh), nil
			})
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": resp, "cached": false})
	}
}

func balanceOf(u *domain.User) BalanceResponse {
	return BalanceResponse{
		BalanceCents:       u.BalanceCents,
		HeldCents:          u.HeldCents,
		AvailableCents:     u.AvailableCents(),
		DailyTxCount:       u.DailyTxCount,
		DailyReceivedCents: u.DailyReceivedCents,
	}
}

// invalidate drops the user's cached views; failures only log
func invalidate(c *gin.Context, rdb *redis.Client, userID uint) {
	if err := utils.InvalidateUser(context.WithoutCancel(c.Request.Context()), rdb, userID); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}
