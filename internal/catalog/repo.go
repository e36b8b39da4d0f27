package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/repo"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
)

// Repository reads priced catalog entities. Catalog CRUD lives elsewhere.
type Repository interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error)
	FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindServiceByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error) {
	return repo.FindByID[models.ServiceOffering](ctx, r.Base, id)
}

func (r *repository) FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	return repo.FindByID[models.SubscriptionPlan](ctx, r.Base, id)
}
