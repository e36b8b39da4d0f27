package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db"
	"github.com/angelmondragon/bookify-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, txn *models.PaymentTransaction) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	if f.createFn != nil {
		return f.createFn(ctx, txn)
	}
	return nil
}

func (f *fakeRepository) FindSuccessfulByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	return nil, nil
}

func (f *fakeRepository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error) {
	return nil, nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	return nil, nil
}

func TestService_RecordSuccess(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.PaymentTransaction
	repo.createFn = func(ctx context.Context, txn *models.PaymentTransaction) error {
		created = txn
		return nil
	}

	input := RecordTransactionInput{
		OrderID:          uuid.New(),
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
		Status:           enums.PaymentTransactionStatusSuccess,
		Method:           "card",
		AmountPaidMinor:  20000,
		Currency:         "INR",
	}
	got, err := svc.Record(context.Background(), input)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if created == nil || got != created {
		t.Fatal("service should return the created transaction")
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected transaction id to be assigned")
	}
	if created.CapturedAt == nil {
		t.Fatal("successful transactions carry a capture time")
	}
	if created.Method == nil || *created.Method != "card" || created.FailureReason != nil {
		t.Fatalf("unexpected optional fields: %+v", created)
	}
}

func TestService_RecordValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	cases := []RecordTransactionInput{
		{GatewayPaymentID: "pay", Status: enums.PaymentTransactionStatusSuccess},
		{OrderID: uuid.New(), Status: enums.PaymentTransactionStatusSuccess},
		{OrderID: uuid.New(), GatewayPaymentID: "pay", Status: "PARTIAL"},
		{OrderID: uuid.New(), GatewayPaymentID: "pay", Status: enums.PaymentTransactionStatusFailed, AmountPaidMinor: -1},
	}
	for i, input := range cases {
		if _, err := svc.Record(context.Background(), input); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}

func TestService_FindExistingPrefersSuccessfulOrderRow(t *testing.T) {
	conn := dbtest.Open(t, "ledger_gate")
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()
	orderID := uuid.New()

	failed, err := svc.Record(ctx, RecordTransactionInput{
		OrderID: orderID, GatewayPaymentID: "pay_failed", Status: enums.PaymentTransactionStatusFailed, Currency: "INR",
	})
	require.NoError(t, err)

	got, err := svc.FindExisting(ctx, orderID, "pay_failed")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, failed.ID, got.ID)

	none, err := svc.FindExisting(ctx, orderID, "pay_other")
	require.NoError(t, err)
	assert.Nil(t, none)

	success, err := svc.Record(ctx, RecordTransactionInput{
		OrderID: orderID, GatewayPaymentID: "pay_ok", Status: enums.PaymentTransactionStatusSuccess, AmountPaidMinor: 100, Currency: "INR",
	})
	require.NoError(t, err)

	got, err = svc.FindExisting(ctx, orderID, "pay_other")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, success.ID, got.ID)
}

func TestRepository_EnforcesSingleSuccessPerOrder(t *testing.T) {
	conn := dbtest.Open(t, "ledger_unique")
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()
	orderID := uuid.New()

	_, err = svc.Record(ctx, RecordTransactionInput{
		OrderID: orderID, GatewayPaymentID: "pay_a", Status: enums.PaymentTransactionStatusSuccess, AmountPaidMinor: 100, Currency: "INR",
	})
	require.NoError(t, err)

	_, err = svc.Record(ctx, RecordTransactionInput{
		OrderID: orderID, GatewayPaymentID: "pay_b", Status: enums.PaymentTransactionStatusSuccess, AmountPaidMinor: 100, Currency: "INR",
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	_, err = svc.Record(ctx, RecordTransactionInput{
		OrderID: uuid.New(), GatewayPaymentID: "pay_a", Status: enums.PaymentTransactionStatusFailed, Currency: "INR",
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "gateway_payment_id"))

	rows, err := svc.ListByOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
