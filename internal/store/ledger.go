package store

import (
	"context"
	"errors"
	"fmt"

	"pix_gateway/internal/domain" // Domain models and errors

	"gorm.io/gorm" // GORM ORM library
)

var errHoldMissing = errors.New("withdrawal hold missing")

// CreateTransaction persists a new transaction
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return storeErr("create transaction", err)
	}
	return nil
}

// FindTransactionByExternalID matches the processor-assigned id
func (s *Store) FindTransactionByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&t).Error; err != nil {
		return nil, storeErr("find transaction by external id", err)
	}
	return &t, nil
}

// FindTransactionByOurID matches the locally generated correlation id
func (s *Store) FindTransactionByOurID(ctx context.Context, ourID string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.db.WithContext(ctx).Where("our_id = ?", ourID).First(&t).Error; err != nil {
		return nil, storeErr("find transaction by our id", err)
	}
	return &t, nil
}

// ListTransactions returns the user's newest transactions first
func (s *Store) ListTransactions(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	q := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}

// TransactionFilter narrows the admin transaction listing
type TransactionFilter struct {
	UserID    uint
	Direction domain.Direction
	Status    domain.TxStatus
}

// SearchTransactions returns one filtered page and the total count
func (s *Store) SearchTransactions(ctx context.Context, f TransactionFilter, p Page) ([]domain.Transaction, int64, error) {
	p = p.Normalize()
	query := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Direction != "" {
		query = query.Where("direction = ?", f.Direction)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr("count transactions", err)
	}
	var txs []domain.Transaction
	if err := query.Order("created_at desc").Offset(p.Offset()).Limit(p.PageSize).Find(&txs).Error; err != nil {
		return nil, 0, storeErr("search transactions", err)
	}
	return txs, total, nil
}

// ReserveFunds moves cents from available into held, only while the user
// is active and has enough available balance.
func (s *Store) ReserveFunds(ctx context.Context, userID uint, cents int64) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND status = ? AND balance_cents - held_cents >= ?", userID, domain.UserActive, cents).
		Update("held_cents", gorm.Expr("held_cents + ?", cents))
	if res.Error != nil {
		return storeErr("reserve funds", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reserve funds: %w", domain.ErrInsufficientBalance) // Lost the race or never had it
	}
	return nil
}

// ReleaseFunds returns a hold to the available balance
func (s *Store) ReleaseFunds(ctx context.Context, userID uint, cents int64) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND held_cents >= ?", userID, cents).
		Update("held_cents", gorm.Expr("held_cents - ?", cents))
	if res.Error != nil {
		return storeErr("release funds", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("release funds: %w: %w", domain.ErrStore, errHoldMissing)
	}
	return nil
}

// SettleWithdrawal debits the held amount and records the transaction in
// one database transaction.
func (s *Store) SettleWithdrawal(ctx context.Context, t *domain.Transaction, debitCents int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("id = ? AND held_cents >= ?", t.UserID, debitCents).
			Updates(map[string]any{
				"balance_cents": gorm.Expr("balance_cents - ?", debitCents),
				"held_cents":    gorm.Expr("held_cents - ?", debitCents),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errHoldMissing // Rolls back, nothing is debited
		}
		return tx.Create(t).Error // Withdrawal row only once money has moved
	})
	if err != nil {
		return storeErr("settle withdrawal", err)
	}
	return nil
}

// ApproveDeposit flips a pending deposit to approved and credits the owner.
// It reports false when the transaction was no longer pending; in that case
// nothing is written.
func (s *Store) ApproveDeposit(ctx context.Context, t *domain.Transaction) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Transaction{}).
			Where("id = ? AND status = ?", t.ID, domain.TxPending).
			Update("status", domain.TxApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // Already final, no credit
		}
		res = tx.Model(&domain.User{}).
			Where("id = ?", t.UserID).
			Updates(map[string]any{
				"balance_cents":        gorm.Expr("balance_cents + ?", t.NetAmountCents),
				"daily_tx_count":       gorm.Expr("daily_tx_count + ?", 1),
				"daily_received_cents": gorm.Expr("daily_received_cents + ?", t.NetAmountCents),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, storeErr("approve deposit", err)
	}
	return applied, nil
}

// CancelTransaction flips a pending transaction to cancelled
func (s *Store) CancelTransaction(ctx context.Context, t *domain.Transaction) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", t.ID, domain.TxPending).
		Update("status", domain.TxCancelled)
	if res.Error != nil {
		return false, storeErr("cancel transaction", res.Error)
	}
	return res.RowsAffected == 1, nil
}
