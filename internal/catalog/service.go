package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

// Service resolves catalog ids into purchasable entities, hiding inactive ones.
type Service interface {
	ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Service(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error)
	Plan(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ProductsByID returns every requested product or NotFound naming the first missing id.
func (s *service) ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		if row.IsActive {
			byID[row.ID] = row
		}
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": id.String()})
		}
	}
	return byID, nil
}

func (s *service) Service(ctx context.Context, id uuid.UUID) (*models.ServiceOffering, error) {
	svc, err := s.repo.FindServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if !svc.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return svc, nil
}

func (s *service) Plan(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.FindPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription plan")
	}
	if !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription plan not found")
	}
	return plan, nil
}
