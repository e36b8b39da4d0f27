package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

// Service exposes the booking transitions payments are allowed to make.
type Service interface {
	// GetPayable returns a pending booking owned by the user for the given service.
	GetPayable(ctx context.Context, userID, bookingID, serviceID uuid.UUID) (*models.ServiceBooking, error)
	MarkInProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// Release deletes a provisional booking; missing rows are ignored.
	Release(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetPayable(ctx context.Context, userID, bookingID, serviceID uuid.UUID) (*models.ServiceBooking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another user")
	}
	if booking.ServiceID != serviceID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking is for a different service").
			WithDetails(map[string]any{"bookingId": bookingID.String(), "serviceId": serviceID.String()})
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "booking is not awaiting payment").
			WithDetails(map[string]any{"status": booking.Status})
	}
	return booking, nil
}

func (s *service) MarkInProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	n, err := repo.UpdateStatus(ctx, id, enums.BookingStatusPending, enums.BookingStatusInProgress)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark booking in progress")
	}
	if n == 1 {
		return nil
	}
	booking, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return pkgerrors.New(pkgerrors.CodeInvalidState, "booking is not awaiting payment").
		WithDetails(map[string]any{"status": booking.Status})
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if _, err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete booking")
	}
	return nil
}
