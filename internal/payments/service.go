package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/ledger"
	"github.com/angelmondragon/bookify-backend/internal/subscriptions"
	"github.com/angelmondragon/bookify-backend/pkg/db"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/metrics"
	"github.com/angelmondragon/bookify-backend/pkg/money"
	"github.com/angelmondragon/bookify-backend/pkg/outbox"
	"github.com/angelmondragon/bookify-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bookify-backend/pkg/pagination"
	"github.com/angelmondragon/bookify-backend/pkg/razorpay"
)

const (
	sourceCheckout = "checkout"
	sourceWebhook  = "webhook"
	sourceSweep    = "sweep"
	sourceAPI      = "api"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the payment reconciliation engine: it mints orders, verifies
// captured payments exactly once and handles cancellation.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.PaymentTransaction, error)
	CancelPayment(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error
	// ReconcileCapturedPayment runs verification for a gateway notification whose
	// body signature was already checked.
	ReconcileCapturedPayment(ctx context.Context, gatewayOrderID, paymentID string) (*models.PaymentTransaction, error)
	RecordFailedPayment(ctx context.Context, input FailedPaymentInput) error
	GetOrder(ctx context.Context, userID uuid.UUID, gatewayOrderID string) (*OrderDetail, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params ListOrdersParams) (*OrderList, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentOrder, error)
	// ExpireOrder cancels an abandoned pending order; terminal orders are skipped.
	ExpireOrder(ctx context.Context, gatewayOrderID string) (bool, error)
}

// FailedPaymentInput describes a payment attempt the gateway reported as failed.
type FailedPaymentInput struct {
	GatewayOrderID string
	PaymentID      string
	Method         string
	AmountMinor    int64
	Currency       string
	Reason         string
}

type ServiceParams struct {
	Repo                    Repository
	Ledger                  ledger.Service
	Pricer                  *Pricer
	Gateway                 Gateway
	Subscriptions           subscriptions.Service
	Effects                 Effects
	Tx                      txRunner
	Outbox                  outboxEmitter
	Metrics                 *metrics.PaymentMetrics
	Logger                  *logger.Logger
	AllowCancelAfterCapture bool
}

type service struct {
	repo                    Repository
	ledger                  ledger.Service
	pricer                  *Pricer
	gateway                 Gateway
	subs                    subscriptions.Service
	effects                 Effects
	tx                      txRunner
	outbox                  outboxEmitter
	metrics                 *metrics.PaymentMetrics
	logg                    *logger.Logger
	allowCancelAfterCapture bool
	now                     func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("payment order repository required")
	case p.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case p.Pricer == nil:
		return nil, fmt.Errorf("pricer required")
	case p.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case p.Subscriptions == nil:
		return nil, fmt.Errorf("subscription service required")
	case len(p.Effects) == 0:
		return nil, fmt.Errorf("side effects required")
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:                    p.Repo,
		ledger:                  p.Ledger,
		pricer:                  p.Pricer,
		gateway:                 p.Gateway,
		subs:                    p.Subscriptions,
		effects:                 p.Effects,
		tx:                      p.Tx,
		outbox:                  p.Outbox,
		metrics:                 p.Metrics,
		logg:                    p.Logger,
		allowCancelAfterCapture: p.AllowCancelAfterCapture,
		now:                     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, userID.String())

	quote, err := s.pricer.Compute(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	amountMinor, err := money.ToMinorUnits(quote.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAmount, err, "order amount cannot be charged")
	}

	if quote.BookingID != nil {
		pending, err := s.repo.HasPendingForBooking(ctx, *quote.BookingID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check booking orders")
		}
		if pending {
			return nil, bookingAlreadyPending(*quote.BookingID)
		}
	}

	orderID := uuid.New()
	var subscriptionID *uuid.UUID
	if quote.Plan != nil {
		sub, err := s.subs.CreatePending(ctx, userID, *quote.Plan)
		if err != nil {
			return nil, err
		}
		subscriptionID = &sub.ID
	}

	currency := s.gateway.Currency()
	remote, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     orderID.String(),
		Notes: map[string]string{
			"order_id": orderID.String(),
			"user_id":  userID.String(),
			"purpose":  quote.Purpose.String(),
		},
	})
	if err != nil {
		if subscriptionID != nil {
			s.discardSubscription(ctx, *subscriptionID)
		}
		return nil, err
	}
	if remote.Currency != "" {
		currency = remote.Currency
	}

	order := &models.PaymentOrder{
		ID:             orderID,
		GatewayOrderID: remote.ID,
		UserID:         userID,
		Purpose:        quote.Purpose,
		Status:         enums.PaymentOrderStatusPending,
		Amount:         quote.Amount,
		Currency:       currency,
		BookingID:      quote.BookingID,
		SubscriptionID: subscriptionID,
		Items:          quote.Items,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if order.BookingID != nil && isPendingBookingConflict(err) {
				return bookingAlreadyPending(*order.BookingID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentOrderCreated,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Source: sourceAPI},
			Data: payloads.PaymentOrderCreatedEvent{
				OrderID:        order.ID,
				GatewayOrderID: order.GatewayOrderID,
				UserID:         userID,
				Purpose:        order.Purpose,
				AmountMinor:    amountMinor,
				Currency:       currency,
			},
		})
	})
	if err != nil {
		// the remote order is orphaned and expires on the gateway side
		return nil, err
	}

	s.metrics.IncOrderCreated(order.Purpose.String())
	logCtx := s.logg.WithOrderID(ctx, order.GatewayOrderID)
	s.logg.Info(logCtx, "payment order created")
	return &CreateOrderResult{RemoteOrder: remote, Order: order}, nil
}

func (s *service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.PaymentTransaction, error) {
	if err := input.Validate(); err != nil {
		s.metrics.IncVerification(outcomeOf(err))
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)
	ctx = s.logg.WithPaymentID(ctx, input.PaymentID)

	if !s.gateway.VerifyPaymentSignature(input.OrderID, input.PaymentID, input.Signature) {
		err := pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature does not match")
		s.metrics.IncVerification(outcomeOf(err))
		s.logg.Warn(ctx, "payment signature rejected")
		return nil, err
	}

	txn, err := s.reconcile(ctx, input.OrderID, input.PaymentID, input.Signature, sourceCheckout)
	s.metrics.IncVerification(outcomeOf(err))
	return txn, err
}

func (s *service) ReconcileCapturedPayment(ctx context.Context, gatewayOrderID, paymentID string) (*models.PaymentTransaction, error) {
	if strings.TrimSpace(gatewayOrderID) == "" || strings.TrimSpace(paymentID) == "" {
		return nil, invalidRequest("order id and payment id are required", nil)
	}
	ctx = s.logg.WithOrderID(ctx, gatewayOrderID)
	ctx = s.logg.WithPaymentID(ctx, paymentID)

	txn, err := s.reconcile(ctx, gatewayOrderID, paymentID, "", sourceWebhook)
	s.metrics.IncVerification(outcomeOf(err))
	return txn, err
}

// reconcile runs everything after the caller is authenticated: idempotency
// gate, gateway read, amount check and the atomic commit.
func (s *service) reconcile(ctx context.Context, gatewayOrderID, paymentID, signature, source string) (*models.PaymentTransaction, error) {
	order, err := s.loadOrder(ctx, s.repo, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.ledger.FindExisting(ctx, order.ID, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing transactions")
	}
	if existing != nil {
		if existing.Status == enums.PaymentTransactionStatusSuccess {
			s.logg.Info(ctx, "payment already recorded")
			return existing, nil
		}
		return nil, notCaptured(existing.GatewayPaymentID, "payment already recorded as failed")
	}

	payment, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.OrderID != "" && payment.OrderID != order.GatewayOrderID {
		return nil, invalidRequest("payment does not belong to this order", map[string]any{
			"orderId":   order.GatewayOrderID,
			"paymentId": paymentID,
		})
	}

	expected, err := money.ToMinorUnits(order.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored order amount is not chargeable")
	}
	if payment.AmountMinor != expected || (payment.Currency != "" && !strings.EqualFold(payment.Currency, order.Currency)) {
		s.logg.Warn(ctx, "payment amount mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeAmountMismatch, "payment amount does not match order amount").
			WithDetails(map[string]any{
				"expectedAmount": expected,
				"paidAmount":     payment.AmountMinor,
				"currency":       order.Currency,
			})
	}

	if payment.Status == razorpay.PaymentStatusFailed {
		if err := s.recordFailed(ctx, order, FailedPaymentInput{
			GatewayOrderID: order.GatewayOrderID,
			PaymentID:      payment.ID,
			Method:         payment.Method,
			AmountMinor:    payment.AmountMinor,
			Currency:       payment.Currency,
			Reason:         payment.ErrorReason,
		}, signature, source); err != nil {
			return nil, err
		}
		return nil, notCaptured(paymentID, payment.Status)
	}
	if !payment.IsSettled() {
		return nil, notCaptured(paymentID, payment.Status)
	}

	return s.commitSuccess(ctx, order, payment, signature, source)
}

var (
	errLostRace        = errors.New("order left pending before commit")
	errAlreadyRecorded = errors.New("payment already recorded")
)

// commitSuccess is the single unit of work that flips the order, appends the
// ledger row, applies the side effect and queues the event.
func (s *service) commitSuccess(ctx context.Context, order *models.PaymentOrder, payment *razorpay.Payment, signature, source string) (*models.PaymentTransaction, error) {
	var (
		result    *models.PaymentTransaction
		lostRace  enums.PaymentOrderStatus
		effectErr error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerTx := s.ledger.WithTx(tx)

		n, err := repo.TransitionStatus(ctx, order.ID, []enums.PaymentOrderStatus{enums.PaymentOrderStatusPending}, map[string]any{
			"status":       enums.PaymentOrderStatusSuccess,
			"completed_at": s.now(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment order status")
		}
		if n == 0 {
			current, err := s.loadOrder(ctx, repo, order.GatewayOrderID)
			if err != nil {
				return err
			}
			lostRace = current.Status
			if current.Status == enums.PaymentOrderStatusSuccess {
				recorded, err := ledgerTx.FindExisting(ctx, order.ID, payment.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recorded transaction")
				}
				if recorded != nil && recorded.Status == enums.PaymentTransactionStatusSuccess {
					result = recorded
					return nil
				}
			}
			return errLostRace
		}

		txn, err := ledgerTx.Record(ctx, ledger.RecordTransactionInput{
			OrderID:          order.ID,
			GatewayPaymentID: payment.ID,
			Signature:        signature,
			Status:           enums.PaymentTransactionStatusSuccess,
			Method:           payment.Method,
			AmountPaidMinor:  payment.AmountMinor,
			Currency:         order.Currency,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return errAlreadyRecorded
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment transaction")
		}

		effect, err := s.effects.For(order.Purpose)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve payment side effect")
		}
		if err := effect.Apply(ctx, tx, order); err != nil {
			effectErr = err
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentSucceeded,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID, Source: source},
			Data: payloads.PaymentSucceededEvent{
				OrderID:          order.ID,
				GatewayOrderID:   order.GatewayOrderID,
				GatewayPaymentID: payment.ID,
				TransactionID:    txn.ID,
				UserID:           order.UserID,
				Purpose:          order.Purpose,
				AmountMinor:      payment.AmountMinor,
				Currency:         order.Currency,
				Method:           payment.Method,
			},
		}); err != nil {
			return err
		}
		result = txn
		return nil
	})

	switch {
	case err == nil:
		s.logg.Info(ctx, "payment verified")
		return result, nil
	case errors.Is(err, errAlreadyRecorded):
		recorded, findErr := s.ledger.FindExisting(ctx, order.ID, payment.ID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load recorded transaction")
		}
		if recorded != nil && recorded.Status == enums.PaymentTransactionStatusSuccess {
			return recorded, nil
		}
		return nil, notCaptured(payment.ID, "payment already recorded as failed")
	case errors.Is(err, errLostRace):
		s.requestRefund(ctx, order, payment.ID, payment.AmountMinor, payloads.RefundReasonOrderCancelled)
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "order is no longer pending").
			WithDetails(map[string]any{"status": lostRace})
	case effectErr != nil:
		// captured funds with nothing applied go to the refund queue
		reason := payloads.RefundReasonFulfillmentFailed
		if pkgerrors.IsCode(effectErr, pkgerrors.CodeInsufficientInventory) {
			reason = payloads.RefundReasonInsufficientInventory
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", effectErr.Error()), "captured payment could not be fulfilled")
		s.requestRefund(ctx, order, payment.ID, payment.AmountMinor, reason)
		return nil, effectErr
	default:
		s.logg.Error(ctx, "payment commit failed", err)
		return nil, err
	}
}

func (s *service) RecordFailedPayment(ctx context.Context, input FailedPaymentInput) error {
	if strings.TrimSpace(input.GatewayOrderID) == "" || strings.TrimSpace(input.PaymentID) == "" {
		return invalidRequest("order id and payment id are required", nil)
	}
	ctx = s.logg.WithOrderID(ctx, input.GatewayOrderID)
	ctx = s.logg.WithPaymentID(ctx, input.PaymentID)

	order, err := s.loadOrder(ctx, s.repo, input.GatewayOrderID)
	if err != nil {
		return err
	}
	existing, err := s.ledger.FindExisting(ctx, order.ID, input.PaymentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing transactions")
	}
	if existing != nil {
		return nil
	}
	return s.recordFailed(ctx, order, input, "", sourceWebhook)
}

// recordFailed appends a FAILED ledger row; the order itself stays pending so
// the customer can retry with another payment.
func (s *service) recordFailed(ctx context.Context, order *models.PaymentOrder, input FailedPaymentInput, signature, source string) error {
	currency := input.Currency
	if currency == "" {
		currency = order.Currency
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordTransactionInput{
			OrderID:          order.ID,
			GatewayPaymentID: input.PaymentID,
			Signature:        signature,
			Status:           enums.PaymentTransactionStatusFailed,
			Method:           input.Method,
			AmountPaidMinor:  input.AmountMinor,
			Currency:         strings.ToUpper(currency),
			FailureReason:    input.Reason,
		}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errAlreadyRecorded
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed payment")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID, Source: source},
			Data: payloads.PaymentFailedEvent{
				OrderID:          order.ID,
				GatewayOrderID:   order.GatewayOrderID,
				GatewayPaymentID: input.PaymentID,
				UserID:           order.UserID,
				Reason:           input.Reason,
			},
		})
	})
	if errors.Is(err, errAlreadyRecorded) {
		return nil
	}
	if err == nil {
		s.logg.Warn(ctx, "payment failed at gateway")
	}
	return err
}

func (s *service) CancelPayment(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if strings.TrimSpace(gatewayOrderID) == "" {
		return invalidRequest("orderId is required", nil)
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	ctx = s.logg.WithOrderID(ctx, gatewayOrderID)

	err := s.cancelOwned(ctx, userID, gatewayOrderID)
	s.metrics.IncCancellation(outcomeOf(err))
	return err
}

func (s *service) cancelOwned(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error {
	order, err := s.loadOrder(ctx, s.repo, gatewayOrderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}

	allowed := []enums.PaymentOrderStatus{enums.PaymentOrderStatusPending}
	if s.allowCancelAfterCapture {
		allowed = append(allowed, enums.PaymentOrderStatusSuccess)
	}
	if !statusIn(order.Status, allowed) {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "order cannot be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}
	if err := s.cancel(ctx, order, enums.EventPaymentCancelled, payloads.CancelReasonUser, sourceAPI); err != nil {
		return err
	}
	s.logg.Info(ctx, "payment order cancelled")
	return nil
}

func (s *service) ExpireOrder(ctx context.Context, gatewayOrderID string) (bool, error) {
	ctx = s.logg.WithOrderID(ctx, gatewayOrderID)
	order, err := s.loadOrder(ctx, s.repo, gatewayOrderID)
	if err != nil {
		return false, err
	}
	if order.Status != enums.PaymentOrderStatusPending {
		return false, nil
	}
	err = s.cancel(ctx, order, enums.EventPaymentOrderExpired, payloads.CancelReasonExpired, sourceSweep)
	if pkgerrors.IsCode(err, pkgerrors.CodeInvalidState) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.metrics.IncCancellation("expired")
	s.logg.Info(ctx, "pending payment order expired")
	return true, nil
}

// cancel moves the order out of the status it was read in and reverses its
// effect in the same transaction. A successful order additionally queues a
// refund request for the captured funds.
func (s *service) cancel(ctx context.Context, order *models.PaymentOrder, eventType enums.OutboxEventType, reason, source string) error {
	previous := order.Status
	committed := previous == enums.PaymentOrderStatusSuccess
	cancelledAt := s.now()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID, []enums.PaymentOrderStatus{previous}, map[string]any{
			"status":       enums.PaymentOrderStatusCancelled,
			"cancelled_at": cancelledAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment order")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order status changed concurrently").
				WithDetails(map[string]any{"status": previous})
		}

		effect, err := s.effects.For(order.Purpose)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve payment side effect")
		}
		if err := effect.Reverse(ctx, tx, order, committed); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID, Source: source},
			Data: payloads.PaymentCancelledEvent{
				OrderID:        order.ID,
				GatewayOrderID: order.GatewayOrderID,
				UserID:         order.UserID,
				Purpose:        order.Purpose,
				PreviousStatus: previous,
				Reason:         reason,
				CancelledAt:    cancelledAt,
			},
		}); err != nil {
			return err
		}
		if !committed {
			return nil
		}

		captured, err := s.ledger.WithTx(tx).FindExisting(ctx, order.ID, "")
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load captured transaction")
		}
		refund := payloads.RefundRequiredEvent{
			OrderID:        order.ID,
			GatewayOrderID: order.GatewayOrderID,
			UserID:         order.UserID,
			Currency:       order.Currency,
			Reason:         payloads.RefundReasonCancelledAfterCapture,
		}
		if captured != nil {
			refund.GatewayPaymentID = captured.GatewayPaymentID
			refund.AmountMinor = captured.AmountPaidMinor
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefundRequired,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID, Source: source},
			Data:          refund,
		})
	})
}

func (s *service) GetOrder(ctx context.Context, userID uuid.UUID, gatewayOrderID string) (*OrderDetail, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	order, err := s.loadOrder(ctx, s.repo, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	txns, err := s.ledger.ListByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transactions")
	}
	if txns == nil {
		txns = []models.PaymentTransaction{}
	}
	return &OrderDetail{Order: order, Transactions: txns}, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params ListOrdersParams) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, invalidRequest("status is not a known order status", map[string]any{"status": *params.Status})
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByUser(ctx, listQuery{
		userID: userID,
		status: params.Status,
		limit:  pagination.LimitWithBuffer(params.Limit),
		cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment orders")
	}
	page := pagination.BuildPage(rows, params.Limit, func(o models.PaymentOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

func (s *service) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentOrder, error) {
	orders, err := s.repo.ListStalePending(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale pending orders")
	}
	return orders, nil
}

// requestRefund queues a refund for captured funds in its own transaction,
// after the failed unit of work has rolled back.
func (s *service) requestRefund(ctx context.Context, order *models.PaymentOrder, paymentID string, amountMinor int64, reason string) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefundRequired,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID, Source: sourceCheckout},
			Data: payloads.RefundRequiredEvent{
				OrderID:          order.ID,
				GatewayOrderID:   order.GatewayOrderID,
				GatewayPaymentID: paymentID,
				UserID:           order.UserID,
				AmountMinor:      amountMinor,
				Currency:         order.Currency,
				Reason:           reason,
			},
		})
	})
	if err != nil {
		s.logg.Error(ctx, "failed to queue refund request", err)
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "refund_reason", reason), "refund requested for captured payment")
}

func (s *service) discardSubscription(ctx context.Context, id uuid.UUID) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.subs.Cancel(ctx, tx, id)
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "subscription_id", id.String()), "failed to discard pending subscription", err)
	}
}

func (s *service) loadOrder(ctx context.Context, repo Repository, gatewayOrderID string) (*models.PaymentOrder, error) {
	order, err := repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment order")
	}
	return order, nil
}

func bookingAlreadyPending(bookingID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState, "booking already has a pending payment order").
		WithDetails(map[string]any{"bookingId": bookingID.String()})
}

func notCaptured(paymentID, status string) error {
	return pkgerrors.New(pkgerrors.CodeNotCaptured, "payment has not been captured").
		WithDetails(map[string]any{"paymentId": paymentID, "status": status})
}

func statusIn(status enums.PaymentOrderStatus, allowed []enums.PaymentOrderStatus) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}

// outcomeOf labels a result for metrics by its error code.
func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}
