package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pix_gateway/internal/domain" // Domain models and errors

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password and secret hashing
)

// maskedFields are never written to the audit log in clear
var maskedFields = []string{"destinationKey", "pixKey", "payerDocument"}

// GenerateCredential replaces the user's credential. The secret is returned
// once and only its hash is stored.
func (s *Service) GenerateCredential(ctx context.Context, userID uint, webhookURL string) (*domain.Credential, string, error) {
	clientID, err := randomToken("live_", 16)
	if err != nil {
		return nil, "", err
	}
	secret, err := randomToken("sk_", 32)
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash client secret: %w", err)
	}
	cred := &domain.Credential{
		UserID:     userID,
		ClientID:   clientID,
		SecretHash: string(hash), // The plain secret is returned once, never stored
		WebhookURL: webhookURL,
		Active:     true,
	}
	if err := s.credentials.ReplaceCredential(ctx, cred); err != nil {
		return nil, "", err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "client_id": clientID}).Info("Credential generated")
	return cred, secret, nil
}

// AuthenticateClient resolves a client-id/secret pair and caller IP to the
// owning user. The allow-list applies once the user has any entry.
func (s *Service) AuthenticateClient(ctx context.Context, clientID, secret, ip string) (*domain.User, error) {
	if clientID == "" || secret == "" {
		return nil, fmt.Errorf("%w: missing client credentials", domain.ErrAuth)
	}
	cred, err := s.credentials.GetCredentialByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid client credentials", domain.ErrAuth)
		}
		return nil, err
	}
	if !cred.Active || bcrypt.CompareHashAndPassword([]byte(cred.SecretHash), []byte(secret)) != nil {
		return nil, fmt.Errorf("%w: invalid client credentials", domain.ErrAuth)
	}
	user, err := s.ledger.GetUser(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: credential owner not found", domain.ErrAuth)
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUserInactive
	}
	ips, err := s.credentials.ListAllowedIPs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(ips) > 0 && !containsIP(ips, ip) {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "ip": ip}).Warn("Programmatic call from unlisted IP")
		return nil, fmt.Errorf("%w: ip %s not authorized", domain.ErrForbidden, ip)
	}
	return user, nil
}

// RecordAPICall appends an audit entry with sensitive fields masked
func (s *Service) RecordAPICall(ctx context.Context, userID uint, method, endpoint, ip string, body map[string]any) error {
	clean := make(map[string]any, len(body))
	for k, v := range body {
		clean[k] = v
	}
	for _, k := range maskedFields {
		if v, ok := clean[k].(string); ok {
			clean[k] = MaskKey(v)
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encode audit body: %w", err)
	}
	return s.credentials.AppendAPILog(ctx, &domain.APILog{
		UserID:    userID,
		Endpoint:  endpoint,
		Method:    method,
		IP:        ip,
		Body:      string(raw),
		CreatedAt: time.Now(),
	})
}

func containsIP(ips []domain.AllowedIP, ip string) bool {
	for _, allowed := range ips {
		if allowed.IP == ip {
			return true
		}
	}
	return false
}

func randomToken(prefix string, n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return prefix + hex.EncodeToString(b), nil
}
