package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/repo"
	"github.com/angelmondragon/bookify-backend/pkg/db"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	"github.com/angelmondragon/bookify-backend/pkg/pagination"
)

// Repository persists payment orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PaymentOrder) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error)
	// TransitionStatus applies updates only while the order is in one of from and
	// reports how many rows changed; zero means another writer got there first.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.PaymentOrderStatus, updates map[string]any) (int64, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentOrder, error)
	HasPendingForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, q listQuery) ([]models.PaymentOrder, error)
}

type listQuery struct {
	userID uuid.UUID
	status *enums.PaymentOrderStatus
	limit  int
	cursor *pagination.Cursor
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.PaymentOrder) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.PaymentOrderStatus, updates map[string]any) (int64, error) {
	return repo.TransitionStatus(ctx, r.Base, &models.PaymentOrder{}, id, from, updates)
}

func (r *repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	q := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.PaymentOrderStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// pendingBookingIndex allows at most one PENDING order per booking.
const pendingBookingIndex = "ux_payment_orders_pending_booking"

func (r *repository) HasPendingForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB(ctx).Model(&models.PaymentOrder{}).
		Where("booking_id = ? AND status = ?", bookingID, enums.PaymentOrderStatusPending).
		Count(&n).Error
	return n > 0, err
}

// isPendingBookingConflict matches the partial unique index on Postgres and
// the column-qualified message SQLite reports for the same index.
func isPendingBookingConflict(err error) bool {
	return db.IsUniqueViolation(err, pendingBookingIndex) || db.IsUniqueViolation(err, "payment_orders.booking_id")
}

// ListByUser returns the user's orders newest first, resuming after cursor.
func (r *repository) ListByUser(ctx context.Context, q listQuery) ([]models.PaymentOrder, error) {
	query := r.DB(ctx).Model(&models.PaymentOrder{}).Where("user_id = ?", q.userID)
	if q.status != nil {
		query = query.Where("status = ?", *q.status)
	}
	if q.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.cursor.CreatedAt, q.cursor.CreatedAt, q.cursor.ID)
	}

	var orders []models.PaymentOrder
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
