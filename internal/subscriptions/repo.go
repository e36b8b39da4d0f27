package subscriptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/repo"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// Repository persists subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	// TransitionStatus moves a subscription out of one of the allowed states and
	// reports how many rows changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.SubscriptionStatus, updates map[string]any) (int64, error)
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

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.DB(ctx).Create(sub).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return repo.FindByID[models.Subscription](ctx, r.Base, id)
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.SubscriptionStatus, updates map[string]any) (int64, error) {
	return repo.TransitionStatus(ctx, r.Base, &models.Subscription{}, id, from, updates)
}
