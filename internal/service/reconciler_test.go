package service

import (
	"context"
	"sync"
	"testing"

	"pix_gateway/internal/domain"
	"pix_gateway/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingDeposit(t *testing.T, svc *Service, user *domain.User) *domain.Transaction {
	t.Helper()
	res, err := svc.CreateDeposit(context.Background(), user, DepositInput{AmountCents: 10000})
	require.NoError(t, err)
	return res.Transaction
}

func TestReconcile_ApprovesOnce(t *testing.T) {
	user := activeUser(1, 0)
	svc, ledger, _ := newTestService(t, user)
	tx := pendingDeposit(t, svc, user)
	n := Notification{CorrelationID: *tx.ExternalID, Source: SourceTransactionID, Status: "paid"}

	first, err := svc.Reconcile(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, first.Outcome)

	second, err := svc.Reconcile(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyFinal, second.Outcome)

	stored := ledger.user(1)
	assert.Equal(t, int64(9500), stored.BalanceCents)
	assert.Equal(t, int64(1), stored.DailyTxCount)
	assert.Equal(t, int64(9500), stored.DailyReceivedCents)
}

func TestReconcile_ConcurrentDeliveriesCreditOnce(t *testing.T) {
	user := activeUser(1, 0)
	svc, ledger, _ := newTestService(t, user)
	tx := pendingDeposit(t, svc, user)
	n := Notification{CorrelationID: tx.OurID, Source: SourceID, Status: "COMPLETED"}

	const deliveries = 10
	outcomes := make([]Outcome, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Reconcile(context.Background(), n)
			if assert.NoError(t, err) {
				outcomes[i] = res.Outcome
			}
		}(i)
	}
	wg.Wait()

	approved := 0
	for _, o := range outcomes {
		if o == OutcomeApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, int64(9500), ledger.user(1).BalanceCents)
}

func TestReconcile_CorrelatesByExternalIDOnly(t *testing.T) {
	user := activeUser(1, 0)
	svc, ledger, gw := newTestService(t, user)
	gw.chargeFn = func(gateway.ChargeRequest) (*gateway.Charge, error) {
		return &gateway.Charge{ExternalID: "98765", CopyPasteCode: "000201"}, nil
	}
	pendingDeposit(t, svc, user)

	n, err := ParseNotification([]byte(`{"data":{"id":98765,"status":"Aprovado"}}`))
	require.NoError(t, err)
	assert.Equal(t, SourceDataID, n.Source)

	res, err := svc.Reconcile(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, res.Outcome)
	assert.Equal(t, int64(9500), ledger.user(1).BalanceCents)
}

func TestReconcile_UnknownTransaction(t *testing.T) {
	svc, _, _ := newTestService(t, activeUser(1, 0))
	_, err := svc.Reconcile(context.Background(), Notification{CorrelationID: "nope", Status: "PAID"})
	assert.ErrorIs(t, err, domain.ErrReconciliationNotFound)
}

func TestReconcile_CancelAndIgnore(t *testing.T) {
	user := activeUser(1, 0)
	svc, ledger, _ := newTestService(t, user)
	ctx := context.Background()

	waiting := pendingDeposit(t, svc, user)
	res, err := svc.Reconcile(ctx, Notification{CorrelationID: waiting.OurID, Status: "PROCESSING"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	res, err = svc.Reconcile(ctx, Notification{CorrelationID: waiting.OurID, Status: "expirado"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)

	res, err = svc.Reconcile(ctx, Notification{CorrelationID: waiting.OurID, Status: "PAID"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyFinal, res.Outcome)
	assert.Zero(t, ledger.user(1).BalanceCents)
}

func TestParseNotification(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		id     string
		source IDSource
		status string
	}{
		{"TopLevelWins", `{"transactionId":"a","id":"b","data":{"transactionId":"c"},"status":"PAID"}`, "a", SourceTransactionID, "PAID"},
		{"FallsBackToID", `{"id":"b","transactionState":"COMPLETO"}`, "b", SourceID, "COMPLETO"},
		{"NestedTransactionID", `{"id":"","data":{"transactionId":"c","id":"d","status":"paid"}}`, "c", SourceDataTransactionID, "paid"},
		{"NumericID", `{"id":42,"state":"CONFIRMED"}`, "42", SourceID, "CONFIRMED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := ParseNotification([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.id, n.CorrelationID)
			assert.Equal(t, tc.source, n.Source)
			assert.Equal(t, tc.status, n.Status)
		})
	}

	_, err := ParseNotification([]byte(`{"status":"PAID"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = ParseNotification([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, ClassifyStatus(" concluído "))
	assert.Equal(t, StatusSuccess, ClassifyStatus("Approved"))
	assert.Equal(t, StatusFailure, ClassifyStatus("canceled"))
	assert.Equal(t, StatusOther, ClassifyStatus("PENDING"))
	assert.Equal(t, StatusOther, ClassifyStatus(""))
}
