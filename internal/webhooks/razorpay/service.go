package razorpaywebhook

import (
	"context"
	"strings"

	"github.com/angelmondragon/bookify-backend/internal/payments"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
)

type paymentReconciler interface {
	ReconcileCapturedPayment(ctx context.Context, gatewayOrderID, paymentID string) (*models.PaymentTransaction, error)
	RecordFailedPayment(ctx context.Context, input payments.FailedPaymentInput) error
}

type ServiceParams struct {
	Payments paymentReconciler
	Logger   *logger.Logger
}

// Service routes verified gateway notifications into the payments engine.
type Service struct {
	payments paymentReconciler
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{payments: params.Payments, logg: params.Logger}, nil
}

// HandleEvent returns an error only when a redelivery could succeed; business
// rejections are logged and acknowledged.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"webhook_event":    event.Type,
		"webhook_event_id": event.ID,
	})

	var err error
	switch event.Type {
	case EventPaymentCaptured, EventPaymentAuthorized, EventOrderPaid:
		payment := event.Payment()
		orderID := event.OrderID()
		if payment == nil || payment.ID == "" || orderID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing from event")
		}
		_, err = s.payments.ReconcileCapturedPayment(ctx, orderID, payment.ID)
	case EventPaymentFailed:
		payment := event.Payment()
		if payment == nil || payment.ID == "" || payment.OrderID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing from event")
		}
		err = s.payments.RecordFailedPayment(ctx, payments.FailedPaymentInput{
			GatewayOrderID: payment.OrderID,
			PaymentID:      payment.ID,
			Method:         payment.Method,
			AmountMinor:    payment.Amount,
			Currency:       payment.Currency,
			Reason:         failureReason(payment),
		})
	default:
		s.logg.Debug(ctx, "webhook event ignored")
		return nil
	}

	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
		s.logg.Warn(s.logg.WithField(ctx, "error_code", typed.Code()), "webhook event rejected by payments")
		return nil
	}
	return err
}

func failureReason(p *PaymentEntity) string {
	parts := make([]string, 0, 2)
	if p.ErrorCode != "" {
		parts = append(parts, p.ErrorCode)
	}
	if p.ErrorDescription != "" {
		parts = append(parts, p.ErrorDescription)
	}
	return strings.Join(parts, ": ")
}
