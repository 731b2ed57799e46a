// Package store is the gorm-backed Ledger Store. Balance and status
// mutations are conditional updates so concurrent callers serialize on the
// affected row instead of on an application lock.
package store

import (
	"errors"
	"fmt"

	"pix_gateway/internal/domain" // Domain models and errors

	"gorm.io/gorm" // GORM ORM library
)

// Store implements the ledger, account and credential repositories
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// storeErr maps gorm errors onto the domain taxonomy
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}

// Page bounds an admin listing
type Page struct {
	Page     int
	PageSize int
}

// Normalize applies the default and maximum page sizes
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1 // Default page number
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20 // Default page size
	}
	return p
}

// Offset for the current page
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages for a result count
func (p Page) TotalPages(total int64) int {
	return (int(total) + p.PageSize - 1) / p.PageSize
}
