package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact percentage rates
)

// UserStatus is the lifecycle gate for money operations
type UserStatus string

const (
	UserPending UserStatus = "pending" // Registered, awaiting approval
	UserActive  UserStatus = "active"  // Allowed to transact
	UserBlocked UserStatus = "blocked" // Suspended by an admin
)

// Valid reports whether s is a known user status
func (s UserStatus) Valid() bool {
	switch s {
	case UserPending, UserActive, UserBlocked:
		return true
	}
	return false
}

const (
	RoleUser    = "user"    // Merchant account
	RoleAdmin   = "admin"   // Platform operator
	RolePartner = "partner" // Operator sharing the markup profit
)

// RateProfile holds the fees charged on each direction
type RateProfile struct {
	DepositPercent     decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"depositPercent"` // Percentage of the gross deposit
	DepositFixedCents  int64           `gorm:"not null;default:0" json:"depositFixedCents"`                // Flat deposit fee
	WithdrawFixedCents int64           `gorm:"not null;default:0" json:"withdrawFixedCents"`               // Flat withdrawal fee
}

// User Model
type User struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`                               // Primary key
	Email              string      `gorm:"size:191;uniqueIndex;not null" json:"email"`         // Unique login email
	Name               string      `gorm:"size:191" json:"name"`                               // Display and payer name
	Document           string      `gorm:"size:32" json:"document"`                            // CPF/CNPJ used as payer document
	Phone              string      `gorm:"size:32" json:"phone"`                               // Contact phone
	PasswordHash       string      `gorm:"not null" json:"-"`                                  // Bcrypt hash
	Role               string      `gorm:"size:16;default:user" json:"role"`                   // Role: user or admin
	Status             UserStatus  `gorm:"size:16;index;not null;default:pending" json:"status"` // Lifecycle status
	BalanceCents       int64       `gorm:"not null;default:0" json:"balanceCents"`             // Ledger balance
	HeldCents          int64       `gorm:"not null;default:0" json:"heldCents"`                // Reserved by in-flight withdrawals
	HasCustomRates     bool        `gorm:"not null;default:false" json:"hasCustomRates"`       // Rates override the base profile
	Rates              RateProfile `gorm:"embedded;embeddedPrefix:rate_" json:"rates"`         // Per-user override
	DailyTxCount       int64       `gorm:"not null;default:0" json:"dailyTxCount"`             // Approved deposits today
	DailyReceivedCents int64       `gorm:"not null;default:0" json:"dailyReceivedCents"`       // Net received today
	AllowedLoginIP     string      `gorm:"size:64" json:"allowedLoginIp"`                      // Optional session login restriction
	CreatedAt          time.Time   `json:"createdAt"`                                          // Registration time
	UpdatedAt          time.Time   `json:"updatedAt"`                                          // Last mutation
}

// AvailableCents is the balance not reserved by in-flight withdrawals
func (u *User) AvailableCents() int64 {
	return u.BalanceCents - u.HeldCents
}

// EffectiveRates returns the user's override or the base profile
func (u *User) EffectiveRates(base RateProfile) RateProfile {
	if u.HasCustomRates {
		return u.Rates
	}
	return base
}

// IsStaff reports whether the user may use the back-office routes
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RolePartner
}

// IsActive reports whether the user may transact
func (u *User) IsActive() bool {
	return u.Status == UserActive
}
