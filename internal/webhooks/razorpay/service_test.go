package razorpaywebhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/bookify-backend/internal/payments"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcileCall struct {
	orderID   string
	paymentID string
}

type stubPayments struct {
	reconciled []reconcileCall
	failed     []payments.FailedPaymentInput
	err        error
}

func (s *stubPayments) ReconcileCapturedPayment(ctx context.Context, orderID, paymentID string) (*models.PaymentTransaction, error) {
	s.reconciled = append(s.reconciled, reconcileCall{orderID: orderID, paymentID: paymentID})
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaymentTransaction{GatewayPaymentID: paymentID}, nil
}

func (s *stubPayments) RecordFailedPayment(ctx context.Context, input payments.FailedPaymentInput) error {
	s.failed = append(s.failed, input)
	return s.err
}

func newTestService(t *testing.T, stub *stubPayments) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Payments: stub,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

const capturedBody = `{
  "entity": "event",
  "account_id": "acc_1",
  "event": "payment.captured",
  "contains": ["payment"],
  "payload": {"payment": {"entity": {
    "id": "pay_1", "order_id": "order_1", "amount": 50000,
    "currency": "INR", "status": "captured", "method": "upi"
  }}},
  "created_at": 1700000000
}`

const failedBody = `{
  "event": "payment.failed",
  "payload": {"payment": {"entity": {
    "id": "pay_2", "order_id": "order_2", "amount": 1200, "currency": "INR",
    "status": "failed", "method": "card",
    "error_code": "BAD_REQUEST_ERROR", "error_description": "card declined"
  }}}
}`

const orderPaidBody = `{
  "event": "order.paid",
  "payload": {
    "payment": {"entity": {"id": "pay_3", "order_id": "order_3", "status": "captured"}},
    "order": {"entity": {"id": "order_3", "amount": 900, "status": "paid"}}
  }
}`

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(capturedBody), " evt_1 ")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentCaptured, event.Type)
	require.NotNil(t, event.Payment())
	assert.Equal(t, int64(50000), event.Payment().Amount)
	assert.Equal(t, "order_1", event.OrderID())

	_, err = ParseEvent([]byte(`{"payload":{}}`), "evt")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseEvent([]byte(`not json`), "evt")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHandleEventCapturedReconciles(t *testing.T) {
	stub := &stubPayments{}
	svc := newTestService(t, stub)

	event, err := ParseEvent([]byte(capturedBody), "evt_1")
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Equal(t, []reconcileCall{{orderID: "order_1", paymentID: "pay_1"}}, stub.reconciled)
	assert.Empty(t, stub.failed)
}

func TestHandleEventOrderPaidUsesOrderEntity(t *testing.T) {
	stub := &stubPayments{}
	svc := newTestService(t, stub)

	event, err := ParseEvent([]byte(orderPaidBody), "evt_3")
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Equal(t, []reconcileCall{{orderID: "order_3", paymentID: "pay_3"}}, stub.reconciled)
}

func TestHandleEventFailedRecordsAttempt(t *testing.T) {
	stub := &stubPayments{}
	svc := newTestService(t, stub)

	event, err := ParseEvent([]byte(failedBody), "evt_2")
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, stub.failed, 1)
	got := stub.failed[0]
	assert.Equal(t, "order_2", got.GatewayOrderID)
	assert.Equal(t, "pay_2", got.PaymentID)
	assert.Equal(t, "card", got.Method)
	assert.Equal(t, int64(1200), got.AmountMinor)
	assert.Equal(t, "BAD_REQUEST_ERROR: card declined", got.Reason)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	stub := &stubPayments{}
	svc := newTestService(t, stub)

	event, err := ParseEvent([]byte(`{"event":"refund.processed","payload":{}}`), "evt_4")
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Empty(t, stub.reconciled)
	assert.Empty(t, stub.failed)
}

func TestHandleEventMissingPaymentEntity(t *testing.T) {
	svc := newTestService(t, &stubPayments{})

	event, err := ParseEvent([]byte(`{"event":"payment.captured","payload":{}}`), "evt_5")
	require.NoError(t, err)
	err = svc.HandleEvent(context.Background(), event)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHandleEventErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "amount mismatch acknowledged", err: pkgerrors.New(pkgerrors.CodeAmountMismatch, "mismatch")},
		{name: "invalid state acknowledged", err: pkgerrors.New(pkgerrors.CodeInvalidState, "cancelled")},
		{name: "not found acknowledged", err: pkgerrors.New(pkgerrors.CodeNotFound, "missing")},
		{name: "gateway outage retried", err: pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "down"), wantErr: true},
		{name: "dependency retried", err: pkgerrors.New(pkgerrors.CodeDependency, "db"), wantErr: true},
		{name: "untyped retried", err: errors.New("boom"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, &stubPayments{err: tc.err})
			event, err := ParseEvent([]byte(capturedBody), "evt")
			require.NoError(t, err)

			err = svc.HandleEvent(context.Background(), event)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.New(logger.Options{Output: io.Discard})})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Payments: &stubPayments{}})
	assert.Error(t, err)
}

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	store := newMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "razorpay-webhook")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "evt_1"))
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = guard.CheckAndMark(ctx, "")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(nil, time.Hour, "scope")
	assert.Error(t, err)
}
