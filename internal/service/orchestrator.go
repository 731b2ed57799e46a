package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pix_gateway/internal/domain"  // Domain models and errors
	"pix_gateway/internal/gateway" // PIX processor client
	"pix_gateway/internal/rates"   // Fee engine

	"github.com/sirupsen/logrus" // Logging library
)

const (
	defaultDepositDescription    = "Depósito PIX"
	defaultWithdrawalDescription = "Saque PIX"
	defaultPayerDocument         = "00000000000"
)

// PIX key types accepted for payouts
var pixKeyTypes = map[string]struct{}{
	"cpf":    {},
	"cnpj":   {},
	"email":  {},
	"phone":  {},
	"random": {},
}

// DepositInput is a cash-in request
type DepositInput struct {
	AmountCents   int64
	Description   string
	PayerName     string // Defaults to the user's name
	PayerDocument string // Defaults to the user's document
	APIGenerated  bool
}

// DepositResult carries the pending transaction and the payment payload
type DepositResult struct {
	Transaction   *domain.Transaction
	QRCode        string
	CopyPasteCode string
}

// WithdrawalInput is a cash-out request
type WithdrawalInput struct {
	AmountCents        int64
	DestinationKey     string
	DestinationKeyType string
	Description        string
	APIGenerated       bool
}

// CreateDeposit asks the processor for a charge and records a pending
// transaction. Nothing is persisted when the processor call fails.
func (s *Service) CreateDeposit(ctx context.Context, user *domain.User, in DepositInput) (*DepositResult, error) {
	if !user.IsActive() {
		return nil, domain.ErrUserInactive
	}
	if in.AmountCents < s.opts.MinDepositCents {
		return nil, fmt.Errorf("%w: minimum deposit is %d cents", domain.ErrValidation, s.opts.MinDepositCents)
	}
	settlement := rates.ComputeSettlement(domain.Deposit, in.AmountCents, user.EffectiveRates(s.opts.BaseRates), s.opts.BaseRates)
	if settlement.NetCents <= 0 {
		return nil, fmt.Errorf("%w: amount does not cover the deposit fee", domain.ErrValidation)
	}

	prefix := "tx_"
	if in.APIGenerated {
		prefix = "api_tx_"
	}
	ourID := prefix + s.newID() // Correlation id sent to the processor
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = defaultDepositDescription
	}
	payerName := firstNonBlank(in.PayerName, user.Name, user.Email)
	payerDocument := firstNonBlank(in.PayerDocument, user.Document, defaultPayerDocument)

	charge, err := s.gateway.CreateCharge(ctx, gateway.ChargeRequest{
		AmountCents:   in.AmountCents,
		Description:   description,
		PayerName:     payerName,
		PayerDocument: payerDocument,
		CorrelationID: ourID,
		WebhookURL:    s.opts.WebhookURL,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"our_id":  ourID,
			"amount":  in.AmountCents,
			"error":   err.Error(),
		}).Error("Deposit charge failed")
		return nil, gatewayErr("create charge", err)
	}

	tx := &domain.Transaction{
		OurID:             ourID,
		UserID:            user.ID,
		Direction:         domain.Deposit,
		GrossAmountCents:  settlement.GrossCents,
		NetAmountCents:    settlement.NetCents,
		PlatformFeeCents:  settlement.UserFeeCents,
		MarkupProfitCents: settlement.MarkupProfitCents,
		ProcessorFeeCents: settlement.BaseFeeCents,
		Description:       description,
		Status:            domain.TxPending,
		APIGenerated:      in.APIGenerated,
	}
	if charge.ExternalID != "" {
		externalID := charge.ExternalID
		tx.ExternalID = &externalID
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"our_id":      ourID,
			"external_id": charge.ExternalID,
			"error":       err.Error(),
		}).Error("Charge created but transaction not persisted")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"our_id":      ourID,
		"external_id": charge.ExternalID,
		"gross":       settlement.GrossCents,
		"net":         settlement.NetCents,
		"fee":         settlement.UserFeeCents,
		"markup":      settlement.MarkupProfitCents,
	}).Info("Deposit created")
	return &DepositResult{Transaction: tx, QRCode: charge.QRCode, CopyPasteCode: charge.CopyPasteCode}, nil
}

// ExecuteWithdrawal pays out to a PIX key. The amount plus fee is held
// before the processor call and debited only after it succeeds; any failure
// releases the hold.
func (s *Service) ExecuteWithdrawal(ctx context.Context, user *domain.User, in WithdrawalInput) (*domain.Transaction, error) {
	if !user.IsActive() {
		return nil, domain.ErrUserInactive
	}
	if in.AmountCents < s.opts.MinWithdrawalCents {
		return nil, fmt.Errorf("%w: minimum withdrawal is %d cents", domain.ErrValidation, s.opts.MinWithdrawalCents)
	}
	key := strings.TrimSpace(in.DestinationKey)
	if key == "" {
		return nil, fmt.Errorf("%w: destination key is required", domain.ErrValidation)
	}
	keyType := strings.ToLower(strings.TrimSpace(in.DestinationKeyType))
	if _, ok := pixKeyTypes[keyType]; !ok {
		return nil, fmt.Errorf("%w: unknown destination key type %q", domain.ErrValidation, in.DestinationKeyType)
	}

	settlement := rates.ComputeSettlement(domain.Withdrawal, in.AmountCents, user.EffectiveRates(s.opts.BaseRates), s.opts.BaseRates)
	total := settlement.TotalDebitCents()
	if user.AvailableCents() < total {
		return nil, fmt.Errorf("%w: need %d cents, available %d", domain.ErrInsufficientBalance, total, user.AvailableCents())
	}
	if err := s.ledger.ReserveFunds(ctx, user.ID, total); err != nil {
		return nil, err
	}

	prefix := "out_"
	if in.APIGenerated {
		prefix = "api_out_"
	}
	ourID := prefix + s.newID()
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = defaultWithdrawalDescription
	}
	fields := logrus.Fields{
		"user_id": user.ID,
		"our_id":  ourID,
		"amount":  in.AmountCents,
		"fee":     settlement.UserFeeCents,
		"key":     MaskKey(key),
	}

	payout, err := s.gateway.CreatePayout(ctx, gateway.PayoutRequest{
		AmountCents:        settlement.NetCents,
		DestinationKey:     key,
		DestinationKeyType: keyType,
		Description:        description,
		CorrelationID:      ourID,
	})
	// The hold must be resolved even when the caller has gone away.
	detached := context.WithoutCancel(ctx)
	if err != nil {
		if releaseErr := s.ledger.ReleaseFunds(detached, user.ID, total); releaseErr != nil {
			logrus.WithFields(fields).WithField("error", releaseErr.Error()).Error("Withdrawal hold not released")
		}
		logrus.WithFields(fields).WithField("error", err.Error()).Error("Withdrawal payout failed")
		return nil, gatewayErr("create payout", err)
	}

	tx := &domain.Transaction{
		OurID:             ourID,
		UserID:            user.ID,
		Direction:         domain.Withdrawal,
		GrossAmountCents:  settlement.GrossCents,
		NetAmountCents:    settlement.NetCents,
		PlatformFeeCents:  settlement.UserFeeCents,
		MarkupProfitCents: settlement.MarkupProfitCents,
		ProcessorFeeCents: settlement.BaseFeeCents,
		Description:       description,
		DestinationKey:    MaskKey(key),
		DestinationType:   keyType,
		Status:            domain.TxApproved,
		APIGenerated:      in.APIGenerated,
	}
	if payout.ExternalID != "" {
		externalID := payout.ExternalID
		tx.ExternalID = &externalID
	}
	if err := s.ledger.SettleWithdrawal(detached, tx, total); err != nil {
		// The payout went out; the hold stays in place so the funds cannot be spent twice.
		logrus.WithFields(fields).WithField("error", err.Error()).Error("Payout executed but ledger settlement failed")
		return nil, err
	}

	logrus.WithFields(fields).WithField("external_id", payout.ExternalID).Info("Withdrawal completed")
	return tx, nil
}

// ListTransactions returns the caller's newest transactions first
func (s *Service) ListTransactions(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error) {
	return s.ledger.ListTransactions(ctx, userID, limit)
}

// gatewayErr keeps processor failures inside the gateway error class
func gatewayErr(op string, err error) error {
	if errors.Is(err, domain.ErrGateway) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrGateway, err)
}

// MaskKey hides all but the last four characters of a PIX key
func MaskKey(key string) string {
	r := []rune(key)
	if len(r) <= 4 {
		return "***"
	}
	return "***" + string(r[len(r)-4:])
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
