// Package rates computes fees and net amounts for PIX transactions.
package rates

import (
	"pix_gateway/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Settlement is the fee split for one transaction, all in cents
type Settlement struct {
	Direction         domain.Direction
	GrossCents        int64 // Amount requested
	UserFeeCents      int64 // Fee charged with the user's effective profile
	BaseFeeCents      int64 // Fee the base profile would charge
	MarkupProfitCents int64 // max(0, user fee - base fee)
	NetCents          int64 // Credited on deposit, paid out on withdrawal
}

// TotalDebitCents is what a withdrawal removes from the balance.
// Deposits never debit.
func (s Settlement) TotalDebitCents() int64 {
	if s.Direction != domain.Withdrawal {
		return 0
	}
	return s.GrossCents + s.UserFeeCents
}

// ComputeSettlement derives the fee split. The deposit fee is taken out of the
// gross amount; the withdrawal fee is charged on top of it.
func ComputeSettlement(dir domain.Direction, grossCents int64, profile, base domain.RateProfile) Settlement {
	s := Settlement{Direction: dir, GrossCents: grossCents}
	switch dir {
	case domain.Deposit:
		s.UserFeeCents = PercentOf(grossCents, profile.DepositPercent) + profile.DepositFixedCents
		s.BaseFeeCents = PercentOf(grossCents, base.DepositPercent) + base.DepositFixedCents
		s.NetCents = grossCents - s.UserFeeCents
	case domain.Withdrawal:
		s.UserFeeCents = profile.WithdrawFixedCents
		s.BaseFeeCents = base.WithdrawFixedCents
		s.NetCents = grossCents
	}
	if markup := s.UserFeeCents - s.BaseFeeCents; markup > 0 {
		s.MarkupProfitCents = markup
	}
	return s
}

// PercentOf returns cents*percent/100 rounded half-up to a whole cent.
func PercentOf(cents int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(percent).Div(hundred).Round(0).IntPart()
}
