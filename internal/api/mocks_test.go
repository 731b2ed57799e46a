package api

import (
	"context"

	"pix_gateway/internal/domain"
	"pix_gateway/internal/service"
	"pix_gateway/internal/store"

	"github.com/stretchr/testify/mock"
)

type mockService struct{ mock.Mock }

func (m *mockService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockService) Login(ctx context.Context, email, password, ip string) (*domain.User, error) {
	args := m.Called(ctx, email, password, ip)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockService) CreateDeposit(ctx context.Context, user *domain.User, in service.DepositInput) (*service.DepositResult, error) {
	args := m.Called(ctx, user, in)
	res, _ := args.Get(0).(*service.DepositResult)
	return res, args.Error(1)
}

func (m *mockService) ExecuteWithdrawal(ctx context.Context, user *domain.User, in service.WithdrawalInput) (*domain.Transaction, error) {
	args := m.Called(ctx, user, in)
	tx, _ := args.Get(0).(*domain.Transaction)
	return tx, args.Error(1)
}

func (m *mockService) ListTransactions(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

func (m *mockService) Reconcile(ctx context.Context, n service.Notification) (*service.ReconcileResult, error) {
	args := m.Called(ctx, n)
	res, _ := args.Get(0).(*service.ReconcileResult)
	return res, args.Error(1)
}

func (m *mockService) GenerateCredential(ctx context.Context, userID uint, webhookURL string) (*domain.Credential, string, error) {
	args := m.Called(ctx, userID, webhookURL)
	cred, _ := args.Get(0).(*domain.Credential)
	return cred, args.String(1), args.Error(2)
}

func (m *mockService) AuthenticateClient(ctx context.Context, clientID, secret, ip string) (*domain.User, error) {
	args := m.Called(ctx, clientID, secret, ip)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockService) RecordAPICall(ctx context.Context, userID uint, method, endpoint, ip string, body map[string]any) error {
	return m.Called(ctx, userID, method, endpoint, ip, body).Error(0)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockStore) ListUsers(ctx context.Context, p store.Page) ([]domain.User, int64, error) {
	args := m.Called(ctx, p)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) SearchTransactions(ctx context.Context, f store.TransactionFilter, p store.Page) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, f, p)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) SetUserStatus(ctx context.Context, id uint, status domain.UserStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockStore) SetUserRates(ctx context.Context, id uint, r domain.RateProfile) error {
	return m.Called(ctx, id, r).Error(0)
}

func (m *mockStore) SetAllowedLoginIP(ctx context.Context, id uint, ip string) error {
	return m.Called(ctx, id, ip).Error(0)
}

func (m *mockStore) SetUserPhone(ctx context.Context, id uint, phone string) error {
	return m.Called(ctx, id, phone).Error(0)
}

func (m *mockStore) CloseAccount(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) ListAPILogs(ctx context.Context, limit int) ([]domain.APILog, error) {
	args := m.Called(ctx, limit)
	logs, _ := args.Get(0).([]domain.APILog)
	return logs, args.Error(1)
}

func (m *mockStore) GetCredentialByUser(ctx context.Context, userID uint) (*domain.Credential, error) {
	args := m.Called(ctx, userID)
	cred, _ := args.Get(0).(*domain.Credential)
	return cred, args.Error(1)
}

func (m *mockStore) DeleteCredentials(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListAllowedIPs(ctx context.Context, userID uint) ([]domain.AllowedIP, error) {
	args := m.Called(ctx, userID)
	ips, _ := args.Get(0).([]domain.AllowedIP)
	return ips, args.Error(1)
}

func (m *mockStore) AddAllowedIP(ctx context.Context, ip *domain.AllowedIP) error {
	return m.Called(ctx, ip).Error(0)
}

func (m *mockStore) DeleteAllowedIP(ctx context.Context, userID, id uint) error {
	return m.Called(ctx, userID, id).Error(0)
}
