package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/repo"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// Repository manages persistence for payment transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.PaymentTransaction) error
	FindSuccessfulByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) FindSuccessfulByOrderID(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	return r.first(r.DB(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentTransactionStatusSuccess))
}

func (r *repository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.PaymentTransaction, error) {
	return r.first(r.DB(ctx).Where("gateway_payment_id = ?", paymentID))
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	var rows []models.PaymentTransaction
	if err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) first(q *gorm.DB) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := q.First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
