package payments

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bookify-backend/api/middleware"
	"github.com/angelmondragon/bookify-backend/api/responses"
	"github.com/angelmondragon/bookify-backend/api/validators"
	internalpayments "github.com/angelmondragon/bookify-backend/internal/payments"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/pagination"
)

const maxOrderIDLength = 64

type orderCreator interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input internalpayments.CreateOrderInput) (*internalpayments.CreateOrderResult, error)
}

type paymentVerifier interface {
	VerifyPayment(ctx context.Context, input internalpayments.VerifyPaymentInput) (*models.PaymentTransaction, error)
}

type paymentCanceller interface {
	CancelPayment(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error
}

type orderReader interface {
	GetOrder(ctx context.Context, userID uuid.UUID, gatewayOrderID string) (*internalpayments.OrderDetail, error)
}

type orderLister interface {
	ListOrders(ctx context.Context, userID uuid.UUID, params internalpayments.ListOrdersParams) (*internalpayments.OrderList, error)
}

type cancelRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// VerifyResponse is returned once the captured payment has been recorded.
type VerifyResponse struct {
	Success     bool                       `json:"success"`
	Message     string                     `json:"message"`
	Transaction *models.PaymentTransaction `json:"transaction"`
}

// CreateOrder prices the purchase and opens a gateway order for the caller.
func CreateOrder(svc orderCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body internalpayments.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// VerifyPayment confirms a checkout callback. Repeat calls return the recorded transaction.
func VerifyPayment(svc paymentVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var body internalpayments.VerifyPaymentInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, body.OrderID)
			ctx = logg.WithPaymentID(ctx, body.PaymentID)
		}

		tx, err := svc.VerifyPayment(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, VerifyResponse{
			Success:     true,
			Message:     "payment verified",
			Transaction: tx,
		})
	}
}

// CancelPayment cancels an order owned by the caller.
func CancelPayment(svc paymentCanceller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := validators.SanitizeString(body.OrderID, maxOrderIDLength)

		if err := svc.CancelPayment(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

// GetOrder returns the caller's order and its ledger entries.
func GetOrder(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID := validators.SanitizeString(chi.URLParam(r, "orderId"), maxOrderIDLength)
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required"))
			return
		}

		detail, err := svc.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// ListOrders pages through the caller's orders, newest first.
func ListOrders(svc orderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.PaymentOrderStatus.IsValid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := validators.ParseQueryCursor(r, "cursor")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), userID, internalpayments.ListOrdersParams{
			Params: pagination.Params{
				Limit:  limit,
				Cursor: cursor,
			},
			Status: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}
