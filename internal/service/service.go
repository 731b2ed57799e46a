// Package service holds the transaction orchestrator, the webhook
// reconciler and the account/credential rules around them.
package service

import (
	"context"

	"pix_gateway/internal/domain"  // Domain models and errors
	"pix_gateway/internal/gateway" // PIX processor client

	"github.com/google/uuid" // Correlation ids
)

// Ledger is the persistence contract for users' money and transactions.
// ReserveFunds, SettleWithdrawal, ApproveDeposit and CancelTransaction must
// be atomic with respect to concurrent callers on the same row.
type Ledger interface {
	GetUser(ctx context.Context, id uint) (*domain.User, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	FindTransactionByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error)
	FindTransactionByOurID(ctx context.Context, ourID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error)
	ReserveFunds(ctx context.Context, userID uint, cents int64) error
	ReleaseFunds(ctx context.Context, userID uint, cents int64) error
	SettleWithdrawal(ctx context.Context, t *domain.Transaction, debitCents int64) error
	ApproveDeposit(ctx context.Context, t *domain.Transaction) (bool, error)
	CancelTransaction(ctx context.Context, t *domain.Transaction) (bool, error)
}

// Accounts stores users for registration and login
type Accounts interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Credentials stores programmatic credentials and their audit trail
type Credentials interface {
	ReplaceCredential(ctx context.Context, c *domain.Credential) error
	GetCredentialByClientID(ctx context.Context, clientID string) (*domain.Credential, error)
	ListAllowedIPs(ctx context.Context, userID uint) ([]domain.AllowedIP, error)
	AppendAPILog(ctx context.Context, l *domain.APILog) error
}

// Gateway is the external PIX processor
type Gateway interface {
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
	CreatePayout(ctx context.Context, req gateway.PayoutRequest) (*gateway.Payout, error)
}

// Options are the injected business settings
type Options struct {
	BaseRates          domain.RateProfile // Platform cost profile
	MinDepositCents    int64              // Smallest accepted deposit
	MinWithdrawalCents int64              // Smallest accepted withdrawal
	WebhookURL         string             // Sent to the processor with each charge
}

// Service wires the ledger, the processor and the settings together
type Service struct {
	ledger      Ledger
	accounts    Accounts
	credentials Credentials
	gateway     Gateway
	opts        Options
	newID       func() string
}

// New builds the service
func New(ledger Ledger, accounts Accounts, credentials Credentials, gw Gateway, opts Options) *Service {
	return &Service{
		ledger:      ledger,
		accounts:    accounts,
		credentials: credentials,
		gateway:     gw,
		opts:        opts,
		newID:       uuid.NewString, // Replaced in tests for stable ids
	}
}

// BaseRates exposes the platform base profile
func (s *Service) BaseRates() domain.RateProfile {
	return s.opts.BaseRates
}
