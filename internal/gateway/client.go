// Package gateway is the HTTP client for the external PIX processor.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"pix_gateway/internal/domain" // Domain models and errors

	"github.com/shopspring/decimal" // Money rendering
	"github.com/sirupsen/logrus"    // Logging library
)

const (
	chargePath = "/api/transactions/create"
	payoutPath = "/api/transactions/withdraw"
)

// ChargeRequest asks the processor for a PIX charge (cash-in)
type ChargeRequest struct {
	AmountCents   int64
	Description   string
	PayerName     string
	PayerDocument string
	CorrelationID string
	WebhookURL    string
}

// Charge is the processor's answer to a charge request
type Charge struct {
	ExternalID    string
	QRCode        string
	CopyPasteCode string
}

// PayoutRequest asks the processor to pay a PIX key (cash-out)
type PayoutRequest struct {
	AmountCents        int64
	DestinationKey     string
	DestinationKeyType string
	Description        string
	CorrelationID      string
}

// Payout is the processor's answer to a payout request
type Payout struct {
	ExternalID string
	Status     string
}

// Config for the processor client
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to the processor over JSON/HTTP
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client whose every call is bounded by cfg.Timeout
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateCharge creates a PIX charge. A response without a QR payload is an error.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	payload := map[string]any{
		"amount":        amountBRL(req.AmountCents),
		"description":   req.Description,
		"payerName":     req.PayerName,
		"payerDocument": req.PayerDocument,
		"transactionId": req.CorrelationID,
	}
	if req.WebhookURL != "" {
		payload["webhookUrl"] = req.WebhookURL
	}
	var out providerResponse
	if err := c.do(ctx, "create charge", chargePath, req.CorrelationID, payload, &out); err != nil {
		return nil, err
	}
	charge := &Charge{
		ExternalID:    firstNonEmpty(string(out.Data.TransactionID), string(out.TransactionID), string(out.ID)),
		QRCode:        firstNonEmpty(out.QRCodeURL, out.QRCodeURLAlt, out.Data.QRCodeURL),
		CopyPasteCode: firstNonEmpty(out.CopyPaste, out.CopyPasteAlt, out.Data.CopyPaste),
	}
	if charge.QRCode == "" && charge.CopyPasteCode == "" {
		return nil, fmt.Errorf("create charge: %w: response has no payment payload", domain.ErrGateway)
	}
	return charge, nil
}

// CreatePayout sends money to a PIX key
func (c *Client) CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error) {
	payload := map[string]any{
		"amount":        amountBRL(req.AmountCents),
		"pixKey":        req.DestinationKey,
		"pixKeyType":    req.DestinationKeyType,
		"description":   req.Description,
		"transactionId": req.CorrelationID,
	}
	var out providerResponse
	if err := c.do(ctx, "create payout", payoutPath, req.CorrelationID, payload, &out); err != nil {
		return nil, err
	}
	return &Payout{
		ExternalID: firstNonEmpty(string(out.Data.TransactionID), string(out.TransactionID), string(out.ID)),
		Status:     firstNonEmpty(out.TransactionState, out.Status, out.Data.Status),
	}, nil
}

// providerResponse accepts every field spelling the processor has used
type providerResponse struct {
	ID               providerID `json:"id"`
	TransactionID    providerID `json:"transactionId"`
	TransactionState string     `json:"transactionState"`
	Status           string     `json:"status"`
	QRCodeURL        string     `json:"qrcodeUrl"`
	QRCodeURLAlt     string     `json:"qrCodeUrl"`
	CopyPaste        string     `json:"copyPaste"`
	CopyPasteAlt     string     `json:"copy_paste"`
	Message          string     `json:"message"`
	Data             struct {
		TransactionID providerID `json:"transactionId"`
		Status        string     `json:"status"`
		QRCodeURL     string     `json:"qrcodeUrl"`
		CopyPaste     string     `json:"copyPaste"`
	} `json:"data"`
}

// providerID is an id sent as either a JSON string or number
type providerID string

func (p *providerID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*p = providerID(n.String())
		return nil
	}
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s != nil {
		*p = providerID(*s)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, path, correlationID string, payload any, out *providerResponse) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ci", c.cfg.ClientID)     // Processor client id
	req.Header.Set("cs", c.cfg.ClientSecret) // Processor client secret

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &domain.GatewayTimeoutError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w: %w", op, domain.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB cap
	if err != nil {
		if isTimeout(err) {
			return &domain.GatewayTimeoutError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w: read body: %w", op, domain.ErrGateway, err)
	}
	logrus.WithFields(logrus.Fields{
		"op":             op,
		"correlation_id": correlationID,
		"status":         resp.StatusCode,
		"elapsed_ms":     time.Since(started).Milliseconds(),
	}).Info("Gateway call")

	decodeErr := json.Unmarshal(raw, out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(out.Message)
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s: %w: %s", op, domain.ErrGateway, msg)
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: %w: malformed response: %w", op, domain.ErrGateway, decodeErr)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// amountBRL renders cents as a JSON number in reais
func amountBRL(cents int64) json.Number {
	return json.Number(decimal.New(cents, -2).StringFixed(2))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
