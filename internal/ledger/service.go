package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// Service records and reads the append-only payment transaction ledger.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Record(ctx context.Context, input RecordTransactionInput) (*models.PaymentTransaction, error)
	// FindExisting implements the verification idempotency gate: a successful
	// transaction for the order wins, otherwise any row carrying the payment id.
	FindExisting(ctx context.Context, orderID uuid.UUID, paymentID string) (*models.PaymentTransaction, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error)
}

type service struct {
	repo Repository
}

// RecordTransactionInput captures the immutable data a transaction row requires.
type RecordTransactionInput struct {
	OrderID          uuid.UUID                      `json:"order_id"`
	GatewayPaymentID string                         `json:"gateway_payment_id"`
	Signature        string                         `json:"signature,omitempty"`
	Status           enums.PaymentTransactionStatus `json:"status"`
	Method           string                         `json:"method,omitempty"`
	AmountPaidMinor  int64                          `json:"amount_paid_minor"`
	Currency         string                         `json:"currency"`
	FailureReason    string                         `json:"failure_reason,omitempty"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Record(ctx context.Context, input RecordTransactionInput) (*models.PaymentTransaction, error) {
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if strings.TrimSpace(input.GatewayPaymentID) == "" {
		return nil, fmt.Errorf("gateway payment id is required")
	}
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("invalid transaction status %q", input.Status)
	}
	if input.AmountPaidMinor < 0 {
		return nil, fmt.Errorf("amount paid cannot be negative")
	}

	txn := &models.PaymentTransaction{
		ID:               uuid.New(),
		OrderID:          input.OrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		Status:           input.Status,
		AmountPaidMinor:  input.AmountPaidMinor,
		Currency:         input.Currency,
		GatewaySignature: optional(input.Signature),
		Method:           optional(input.Method),
		FailureReason:    optional(input.FailureReason),
	}
	if input.Status == enums.PaymentTransactionStatusSuccess {
		now := time.Now().UTC()
		txn.CapturedAt = &now
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) FindExisting(ctx context.Context, orderID uuid.UUID, paymentID string) (*models.PaymentTransaction, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	txn, err := s.repo.FindSuccessfulByOrderID(ctx, orderID)
	if err != nil || txn != nil {
		return txn, err
	}
	if paymentID == "" {
		return nil, nil
	}
	return s.repo.FindByGatewayPaymentID(ctx, paymentID)
}

func (s *service) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
