package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"pix_gateway/internal/domain"
	"pix_gateway/internal/gateway"
)

// memLedger honours the same conditional contracts as the SQL store
type memLedger struct {
	mu     sync.Mutex
	users  map[uint]*domain.User
	txs    []*domain.Transaction
	creds  map[string]*domain.Credential
	ips    map[uint][]domain.AllowedIP
	logs   []domain.APILog
	nextID uint

	reserveCalls atomic.Int32 // ReserveFunds attempts
	settleErr    error        // Forced SettleWithdrawal failure
}

func newMemLedger(users ...*domain.User) *memLedger {
	l := &memLedger{
		users: map[uint]*domain.User{},
		creds: map[string]*domain.Credential{},
		ips:   map[uint][]domain.AllowedIP{},
	}
	for _, u := range users {
		cp := *u
		l.users[u.ID] = &cp
	}
	return l
}

func (l *memLedger) user(id uint) domain.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.users[id]
}

func (l *memLedger) GetUser(_ context.Context, id uint) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (l *memLedger) CreateUser(_ context.Context, u *domain.User) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", domain.ErrConflict)
		}
	}
	u.ID = uint(len(l.users) + 100)
	cp := *u
	l.users[u.ID] = &cp
	return nil
}

func (l *memLedger) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (l *memLedger) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	t.ID = l.nextID
	cp := *t
	l.txs = append(l.txs, &cp)
	return nil
}

func (l *memLedger) find(match func(*domain.Transaction) bool) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.txs {
		if match(t) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (l *memLedger) FindTransactionByExternalID(_ context.Context, externalID string) (*domain.Transaction, error) {
	return l.find(func(t *domain.Transaction) bool { return t.ExternalID != nil && *t.ExternalID == externalID })
}

func (l *memLedger) FindTransactionByOurID(_ context.Context, ourID string) (*domain.Transaction, error) {
	return l.find(func(t *domain.Transaction) bool { return t.OurID == ourID })
}

func (l *memLedger) ListTransactions(_ context.Context, userID uint, limit int) ([]domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Transaction
	for i := len(l.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if userID == 0 || l.txs[i].UserID == userID {
			out = append(out, *l.txs[i])
		}
	}
	return out, nil
}

func (l *memLedger) ReserveFunds(_ context.Context, userID uint, cents int64) error {
	l.reserveCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.users[userID]
	if u == nil || !u.IsActive() || u.AvailableCents() < cents {
		return domain.ErrInsufficientBalance
	}
	u.HeldCents += cents
	return nil
}

func (l *memLedger) ReleaseFunds(_ context.Context, userID uint, cents int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.users[userID]
	if u == nil || u.HeldCents < cents {
		return domain.ErrStore
	}
	u.HeldCents -= cents
	return nil
}

func (l *memLedger) SettleWithdrawal(_ context.Context, t *domain.Transaction, debitCents int64) error {
	l.mu.Lock()
	if l.settleErr != nil {
		l.mu.Unlock()
		return l.settleErr
	}
	u := l.users[t.UserID]
	if u == nil || u.HeldCents < debitCents {
		l.mu.Unlock()
		return domain.ErrStore
	}
	u.HeldCents -= debitCents
	u.BalanceCents -= debitCents
	l.mu.Unlock()
	return l.CreateTransaction(context.Background(), t)
}

func (l *memLedger) ApproveDeposit(_ context.Context, t *domain.Transaction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, stored := range l.txs {
		if stored.ID != t.ID {
			continue
		}
		if stored.Status != domain.TxPending {
			return false, nil
		}
		stored.Status = domain.TxApproved
		u := l.users[stored.UserID]
		u.BalanceCents += stored.NetAmountCents
		u.DailyTxCount++
		u.DailyReceivedCents += stored.NetAmountCents
		return true, nil
	}
	return false, domain.ErrNotFound
}

func (l *memLedger) CancelTransaction(_ context.Context, t *domain.Transaction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, stored := range l.txs {
		if stored.ID == t.ID && stored.Status == domain.TxPending {
			stored.Status = domain.TxCancelled
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) ReplaceCredential(_ context.Context, c *domain.Credential) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, existing := range l.creds {
		if existing.UserID == c.UserID {
			delete(l.creds, id)
		}
	}
	cp := *c
	l.creds[c.ClientID] = &cp
	return nil
}

func (l *memLedger) GetCredentialByClientID(_ context.Context, clientID string) (*domain.Credential, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.creds[clientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (l *memLedger) ListAllowedIPs(_ context.Context, userID uint) ([]domain.AllowedIP, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.AllowedIP(nil), l.ips[userID]...), nil
}

func (l *memLedger) AppendAPILog(_ context.Context, entry *domain.APILog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, *entry)
	return nil
}

// fakeGateway counts calls and delegates to optional hooks
type fakeGateway struct {
	charges atomic.Int32
	payouts atomic.Int32

	chargeFn func(gateway.ChargeRequest) (*gateway.Charge, error)
	payoutFn func(gateway.PayoutRequest) (*gateway.Payout, error)

	mu         sync.Mutex
	lastPayout gateway.PayoutRequest
}

func (g *fakeGateway) CreateCharge(_ context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	g.charges.Add(1)
	if g.chargeFn != nil {
		return g.chargeFn(req)
	}
	return &gateway.Charge{ExternalID: "ext-" + req.CorrelationID, QRCode: "qr", CopyPasteCode: "000201"}, nil
}

func (g *fakeGateway) CreatePayout(_ context.Context, req gateway.PayoutRequest) (*gateway.Payout, error) {
	g.payouts.Add(1)
	g.mu.Lock()
	g.lastPayout = req
	g.mu.Unlock()
	if g.payoutFn != nil {
		return g.payoutFn(req)
	}
	return &gateway.Payout{ExternalID: "po-" + req.CorrelationID, Status: "COMPLETED"}, nil
}
