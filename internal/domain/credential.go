package domain

import "time"

// Credential is a client-id/secret pair for programmatic access
type Credential struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"userId"`
	ClientID   string    `gorm:"size:64;uniqueIndex;not null" json:"clientId"`
	SecretHash string    `gorm:"not null" json:"-"`
	WebhookURL string    `gorm:"size:255" json:"webhookUrl"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AllowedIP restricts programmatic access to listed addresses once any exist
type AllowedIP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_ip;not null" json:"userId"`
	IP        string    `gorm:"size:64;uniqueIndex:idx_user_ip;not null" json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
}

// APILog is the append-only audit trail of programmatic calls
type APILog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Endpoint  string    `gorm:"size:64" json:"endpoint"`
	Method    string    `gorm:"size:8" json:"method"`
	IP        string    `gorm:"size:64" json:"ip"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

// TableName keeps the audit table name stable
func (APILog) TableName() string { return "api_logs" }
