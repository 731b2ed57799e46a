package store

import (
	"context"
	"fmt"

	"pix_gateway/internal/domain" // Domain models and errors

	"gorm.io/gorm" // GORM ORM library
)

// CreateUser inserts a newly registered user
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return storeErr("create user", err)
	}
	return nil
}

// GetUser loads a user by id
func (s *Store) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, storeErr("get user", err)
	}
	return &u, nil
}

// GetUserByEmail loads a user by login email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, storeErr("get user by email", err)
	}
	return &u, nil
}

// ListUsers returns one page of users and the total count
func (s *Store) ListUsers(ctx context.Context, p Page) ([]domain.User, int64, error) {
	p = p.Normalize()
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, storeErr("count users", err)
	}
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("id").Offset(p.Offset()).Limit(p.PageSize).Find(&users).Error; err != nil {
		return nil, 0, storeErr("list users", err)
	}
	return users, total, nil
}

// SetUserStatus is the external approval action
func (s *Store) SetUserStatus(ctx context.Context, id uint, status domain.UserStatus) error {
	return s.updateUser(ctx, "set user status", id, map[string]any{"status": status})
}

// SetUserRates stores a per-user rate override
func (s *Store) SetUserRates(ctx context.Context, id uint, r domain.RateProfile) error {
	return s.updateUser(ctx, "set user rates", id, map[string]any{
		"has_custom_rates":          true,
		"rate_deposit_percent":      r.DepositPercent,
		"rate_deposit_fixed_cents":  r.DepositFixedCents,
		"rate_withdraw_fixed_cents": r.WithdrawFixedCents,
	})
}

// SetAllowedLoginIP restricts session logins to one address; empty clears it
func (s *Store) SetAllowedLoginIP(ctx context.Context, id uint, ip string) error {
	return s.updateUser(ctx, "set allowed login ip", id, map[string]any{"allowed_login_ip": ip})
}

// SetUserPhone replaces the contact phone
func (s *Store) SetUserPhone(ctx context.Context, id uint, phone string) error {
	return s.updateUser(ctx, "set user phone", id, map[string]any{"phone": phone})
}

// CloseAccount blocks the user and revokes programmatic access. Transactions
// and audit entries stay; the ledger keeps its history.
func (s *Store) CloseAccount(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
			"status":           domain.UserBlocked,
			"allowed_login_ip": "",
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Credential{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Delete(&domain.AllowedIP{}).Error
	})
	if err != nil {
		return storeErr("close account", err)
	}
	return nil
}

func (s *Store) updateUser(ctx context.Context, op string, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storeErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// ResetDailyCounters zeroes every user's daily counters
func (s *Store) ResetDailyCounters(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("daily_tx_count <> 0 OR daily_received_cents <> 0").
		Updates(map[string]any{
			"daily_tx_count":       0,
			"daily_received_cents": 0,
		})
	if res.Error != nil {
		return 0, storeErr("reset daily counters", res.Error)
	}
	return res.RowsAffected, nil
}
