package store

import (
	"context"
	"fmt"

	"pix_gateway/internal/domain" // Domain models and errors

	"gorm.io/gorm" // GORM ORM library
)

// ReplaceCredential drops the user's previous credentials and stores c
func (s *Store) ReplaceCredential(ctx context.Context, c *domain.Credential) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", c.UserID).Delete(&domain.Credential{}).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return storeErr("replace credential", err)
	}
	return nil
}

// GetCredentialByUser returns the user's active credential
func (s *Store) GetCredentialByUser(ctx context.Context, userID uint) (*domain.Credential, error) {
	var c domain.Credential
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, storeErr("get credential", err)
	}
	return &c, nil
}

// GetCredentialByClientID looks a credential up by its public id
func (s *Store) GetCredentialByClientID(ctx context.Context, clientID string) (*domain.Credential, error) {
	var c domain.Credential
	if err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&c).Error; err != nil {
		return nil, storeErr("get credential by client id", err)
	}
	return &c, nil
}

// DeleteCredentials removes every credential of the user
func (s *Store) DeleteCredentials(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Credential{})
	if res.Error != nil {
		return 0, storeErr("delete credentials", res.Error)
	}
	return res.RowsAffected, nil
}

// ListAllowedIPs returns the user's programmatic allow-list
func (s *Store) ListAllowedIPs(ctx context.Context, userID uint) ([]domain.AllowedIP, error) {
	var ips []domain.AllowedIP
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&ips).Error; err != nil {
		return nil, storeErr("list allowed ips", err)
	}
	return ips, nil
}

// AddAllowedIP appends an address; duplicates map to ErrConflict
func (s *Store) AddAllowedIP(ctx context.Context, ip *domain.AllowedIP) error {
	if err := s.db.WithContext(ctx).Create(ip).Error; err != nil {
		return storeErr("add allowed ip", err)
	}
	return nil
}

// DeleteAllowedIP removes one of the user's addresses
func (s *Store) DeleteAllowedIP(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.AllowedIP{})
	if res.Error != nil {
		return storeErr("delete allowed ip", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete allowed ip: %w", domain.ErrNotFound)
	}
	return nil
}

// AppendAPILog records one programmatic call
func (s *Store) AppendAPILog(ctx context.Context, l *domain.APILog) error {
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return storeErr("append api log", err)
	}
	return nil
}

// ListAPILogs returns the newest audit entries
func (s *Store) ListAPILogs(ctx context.Context, limit int) ([]domain.APILog, error) {
	var logs []domain.APILog
	if err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, storeErr("list api logs", err)
	}
	return logs, nil
}
