package domain

import "time" // Timestamps

// Direction of a transaction, fixed at creation
type Direction string

const (
	Deposit    Direction = "deposit"    // Cash-in via PIX charge
	Withdrawal Direction = "withdrawal" // Cash-out to a PIX key
)

// TxStatus of a transaction; approved and cancelled are absorbing
type TxStatus string

const (
	TxPending   TxStatus = "pending"   // Awaiting processor confirmation
	TxApproved  TxStatus = "approved"  // Settled
	TxCancelled TxStatus = "cancelled" // Failed or expired at the processor
)

// Final reports whether no further transition is allowed
func (s TxStatus) Final() bool {
	return s == TxApproved || s == TxCancelled
}

// Transaction Model
type Transaction struct {
	ID                uint      `gorm:"primaryKey" json:"id"`                                 // Primary key
	OurID             string    `gorm:"size:64;uniqueIndex;not null" json:"ourId"`            // Locally generated correlation id
	ExternalID        *string   `gorm:"size:128;index" json:"externalId"`                     // Processor id, nil until known
	UserID            uint      `gorm:"index;not null" json:"userId"`                         // Owning user
	Direction         Direction `gorm:"size:16;not null" json:"direction"`                    // Deposit or withdrawal
	GrossAmountCents  int64     `gorm:"not null" json:"grossAmountCents"`                     // Amount requested
	NetAmountCents    int64     `gorm:"not null" json:"netAmountCents"`                       // Amount credited or paid out
	PlatformFeeCents  int64     `gorm:"not null" json:"platformFeeCents"`                     // Fee charged to the user
	MarkupProfitCents int64     `gorm:"not null" json:"markupProfitCents"`                    // Fee above the base profile
	ProcessorFeeCents int64     `gorm:"not null" json:"processorFeeCents"`                    // Base cost of the operation
	Description       string    `gorm:"size:255" json:"description"`                          // Free text
	DestinationKey    string    `gorm:"size:128" json:"destinationKey,omitempty"`             // PIX key for withdrawals
	DestinationType   string    `gorm:"size:16" json:"destinationKeyType,omitempty"`          // PIX key type
	Status            TxStatus  `gorm:"size:16;index;not null;default:pending" json:"status"` // Only mutable field
	APIGenerated      bool      `gorm:"not null;default:false" json:"apiGenerated"`           // Created through client credentials
	CreatedAt         time.Time `gorm:"index" json:"createdAt"`                               // Creation time
	UpdatedAt         time.Time `json:"updatedAt"`                                            // Last status change
}
