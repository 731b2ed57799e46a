package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"pix_gateway/internal/domain" // Domain models and errors
)

// IDSource names the payload field a correlation id was taken from
type IDSource string

// Correlation fields in priority order
const (
	SourceTransactionID     IDSource = "transactionId"
	SourceID                IDSource = "id"
	SourceDataTransactionID IDSource = "data.transactionId"
	SourceDataID            IDSource = "data.id"
)

// StatusClass is the normalized meaning of a processor status string
type StatusClass int

const (
	StatusOther StatusClass = iota
	StatusSuccess
	StatusFailure
)

var successTokens = map[string]struct{}{
	"COMPLETE": {}, "COMPLETED": {}, "COMPLETO": {}, "CONCLUIDO": {}, "CONCLUÍDO": {},
	"APPROVED": {}, "APROVADO": {},
	"PAID": {}, "PAGO": {},
	"CONFIRMED": {}, "CONFIRMADO": {},
}

var failureTokens = map[string]struct{}{
	"CANCELLED": {}, "CANCELED": {}, "CANCELADO": {},
	"FAILED": {}, "FALHOU": {}, "FALHA": {},
	"EXPIRED": {}, "EXPIRADO": {},
	"REFUNDED": {}, "ESTORNADO": {},
	"REJECTED": {}, "RECUSADO": {},
}

// ClassifyStatus maps a processor status onto success/failure, case-insensitively
func ClassifyStatus(status string) StatusClass {
	token := strings.ToUpper(strings.TrimSpace(status))
	if _, ok := successTokens[token]; ok {
		return StatusSuccess
	}
	if _, ok := failureTokens[token]; ok {
		return StatusFailure
	}
	return StatusOther
}

// Notification is a parsed processor webhook
type Notification struct {
	CorrelationID string
	Source        IDSource
	Status        string
}

// Class of the notification's status
func (n Notification) Class() StatusClass {
	return ClassifyStatus(n.Status)
}

// flexID accepts ids sent either as JSON strings or numbers
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type idCandidate struct {
	source IDSource
	value  flexID
}

type webhookPayload struct {
	TransactionID    flexID `json:"transactionId"`
	ID               flexID `json:"id"`
	TransactionState string `json:"transactionState"`
	Status           string `json:"status"`
	State            string `json:"state"`
	Data             *struct {
		TransactionID    flexID `json:"transactionId"`
		ID               flexID `json:"id"`
		Status           string `json:"status"`
		TransactionState string `json:"transactionState"`
	} `json:"data"`
}

// ParseNotification extracts the first non-empty correlation id, in the
// order transactionId, id, data.transactionId, data.id, and the first
// non-empty status.
func ParseNotification(raw []byte) (Notification, error) {
	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Notification{}, fmt.Errorf("%w: malformed notification: %w", domain.ErrValidation, err)
	}
	candidates := []idCandidate{
		{SourceTransactionID, p.TransactionID},
		{SourceID, p.ID},
	}
	statuses := []string{p.TransactionState, p.Status, p.State}
	if p.Data != nil {
		candidates = append(candidates,
			idCandidate{SourceDataTransactionID, p.Data.TransactionID},
			idCandidate{SourceDataID, p.Data.ID},
		)
		statuses = append(statuses, p.Data.Status, p.Data.TransactionState)
	}

	var n Notification
	for _, c := range candidates {
		if c.value != "" {
			n.CorrelationID = string(c.value)
			n.Source = c.source
			break
		}
	}
	if n.CorrelationID == "" {
		return Notification{}, fmt.Errorf("%w: notification carries no transaction id", domain.ErrValidation)
	}
	n.Status = firstNonBlank(statuses...)
	return n, nil
}
