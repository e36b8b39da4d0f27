package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/repo"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// Repository persists service bookings created by the booking flow.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error) {
	return repo.FindByID[models.ServiceBooking](ctx, r.Base, id)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus) (int64, error) {
	return repo.TransitionStatus(ctx, r.Base, &models.ServiceBooking{}, id, []enums.BookingStatus{from}, map[string]any{"status": to})
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.ServiceBooking{})
	return res.RowsAffected, res.Error
}
