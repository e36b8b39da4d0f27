package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

// Service owns the subscription lifecycle as driven by payments.
type Service interface {
	// CreatePending provisions a subscription before payment so the order can reference it.
	CreatePending(ctx context.Context, userID uuid.UUID, plan models.SubscriptionPlan) (*models.Subscription, error)
	Confirm(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
}

type service struct {
	repo        Repository
	defaultDays int
	now         func() time.Time
}

func NewService(repo Repository, defaultDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if defaultDays <= 0 {
		return nil, fmt.Errorf("default subscription period must be positive")
	}
	return &service{
		repo:        repo,
		defaultDays: defaultDays,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreatePending(ctx context.Context, userID uuid.UUID, plan models.SubscriptionPlan) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	days := plan.DurationDays
	if days <= 0 {
		days = s.defaultDays
	}
	sub := &models.Subscription{
		ID:         uuid.New(),
		UserID:     userID,
		PlanID:     plan.ID,
		Status:     enums.SubscriptionStatusPending,
		PeriodDays: days,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending subscription")
	}
	return sub, nil
}

// Confirm activates a pending subscription and starts its first period.
func (s *service) Confirm(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	sub, err := s.find(ctx, repo, id)
	if err != nil {
		return err
	}

	start := s.now()
	end := start.AddDate(0, 0, sub.PeriodDays)
	n, err := repo.TransitionStatus(ctx, id, []enums.SubscriptionStatus{enums.SubscriptionStatusPending}, map[string]any{
		"status":               enums.SubscriptionStatusConfirmed,
		"current_period_start": start,
		"current_period_end":   end,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm subscription")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "subscription is not pending").
			WithDetails(map[string]any{"subscriptionId": id.String(), "status": sub.Status})
	}
	return nil
}

// Cancel is a no-op for subscriptions that are already cancelled.
func (s *service) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	sub, err := s.find(ctx, repo, id)
	if err != nil {
		return err
	}
	if !sub.Status.Cancellable() {
		return nil
	}
	_, err = repo.TransitionStatus(ctx, id, []enums.SubscriptionStatus{
		enums.SubscriptionStatusPending,
		enums.SubscriptionStatusConfirmed,
	}, map[string]any{
		"status":       enums.SubscriptionStatusCancelled,
		"cancelled_at": s.now(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return s.find(ctx, s.repo, id)
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*models.Subscription, error) {
	sub, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return sub, nil
}
