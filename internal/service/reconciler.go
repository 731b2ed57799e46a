package service

import (
	"context"
	"errors"
	"fmt"

	"pix_gateway/internal/domain" // Domain models and errors

	"github.com/sirupsen/logrus" // Logging library
)

// Outcome of one reconciliation
type Outcome string

const (
	OutcomeApproved     Outcome = "approved"      // Pending -> Approved, balance credited
	OutcomeCancelled    Outcome = "cancelled"     // Pending -> Cancelled
	OutcomeAlreadyFinal Outcome = "already_final" // Duplicate delivery, nothing applied
	OutcomeIgnored      Outcome = "ignored"       // Non-terminal status, nothing applied
)

// ReconcileResult reports what a notification did
type ReconcileResult struct {
	Transaction *domain.Transaction
	Outcome     Outcome
}

// Reconcile applies a processor notification to its transaction. Approval
// credits the owner exactly once however often the notification arrives.
// Errors mean nothing was committed and the sender should retry.
func (s *Service) Reconcile(ctx context.Context, n Notification) (*ReconcileResult, error) {
	tx, err := s.resolve(ctx, n.CorrelationID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"correlation_id": n.CorrelationID,
			"source":         n.Source,
			"status":         n.Status,
			"error":          err.Error(),
		}).Error("Webhook not reconciled")
		return nil, err
	}
	fields := logrus.Fields{
		"our_id":  tx.OurID,
		"user_id": tx.UserID,
		"status":  n.Status,
		"source":  n.Source,
	}

	if tx.Status.Final() {
		logrus.WithFields(fields).WithField("current", tx.Status).Info("Webhook for final transaction ignored")
		return &ReconcileResult{Transaction: tx, Outcome: OutcomeAlreadyFinal}, nil
	}

	switch n.Class() {
	case StatusSuccess:
		if tx.Direction != domain.Deposit {
			return &ReconcileResult{Transaction: tx, Outcome: OutcomeIgnored}, nil
		}
		applied, err := s.ledger.ApproveDeposit(ctx, tx)
		if err != nil {
			logrus.WithFields(fields).WithField("error", err.Error()).Error("Deposit approval failed")
			return nil, err
		}
		if !applied {
			// A concurrent delivery won the transition.
			return &ReconcileResult{Transaction: tx, Outcome: OutcomeAlreadyFinal}, nil
		}
		tx.Status = domain.TxApproved
		logrus.WithFields(fields).WithField("net", tx.NetAmountCents).Info("Deposit approved, balance credited")
		return &ReconcileResult{Transaction: tx, Outcome: OutcomeApproved}, nil

	case StatusFailure:
		cancelled, err := s.ledger.CancelTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}
		if !cancelled {
			return &ReconcileResult{Transaction: tx, Outcome: OutcomeAlreadyFinal}, nil
		}
		tx.Status = domain.TxCancelled
		logrus.WithFields(fields).Info("Transaction cancelled by processor")
		return &ReconcileResult{Transaction: tx, Outcome: OutcomeCancelled}, nil
	}

	logrus.WithFields(fields).Info("Webhook with non-terminal status acknowledged")
	return &ReconcileResult{Transaction: tx, Outcome: OutcomeIgnored}, nil
}

// resolve tries the external id first, then our id. No fuzzy matching.
func (s *Service) resolve(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.ledger.FindTransactionByExternalID(ctx, id)
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	tx, err = s.ledger.FindTransactionByOurID(ctx, id)
	if err == nil {
		return tx, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReconciliationNotFound, id)
	}
	return nil, err
}
