package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookify-backend/api/middleware"
	internalpayments "github.com/angelmondragon/bookify-backend/internal/payments"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/razorpay"
)

type stubPaymentsService struct {
	createInput  internalpayments.CreateOrderInput
	createUser   uuid.UUID
	verifyInput  internalpayments.VerifyPaymentInput
	cancelUser   uuid.UUID
	cancelOrder  string
	getOrder     string
	listParams   internalpayments.ListOrdersParams
	err          error
	transaction  *models.PaymentTransaction
	createResult *internalpayments.CreateOrderResult
}

func (s *stubPaymentsService) CreateOrder(ctx context.Context, userID uuid.UUID, input internalpayments.CreateOrderInput) (*internalpayments.CreateOrderResult, error) {
	s.createUser = userID
	s.createInput = input
	return s.createResult, s.err
}

func (s *stubPaymentsService) VerifyPayment(ctx context.Context, input internalpayments.VerifyPaymentInput) (*models.PaymentTransaction, error) {
	s.verifyInput = input
	return s.transaction, s.err
}

func (s *stubPaymentsService) CancelPayment(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error {
	s.cancelUser = userID
	s.cancelOrder = gatewayOrderID
	return s.err
}

func (s *stubPaymentsService) GetOrder(ctx context.Context, userID uuid.UUID, gatewayOrderID string) (*internalpayments.OrderDetail, error) {
	s.getOrder = gatewayOrderID
	if s.err != nil {
		return nil, s.err
	}
	return &internalpayments.OrderDetail{Order: &models.PaymentOrder{GatewayOrderID: gatewayOrderID, UserID: userID}}, nil
}

func (s *stubPaymentsService) ListOrders(ctx context.Context, userID uuid.UUID, params internalpayments.ListOrdersParams) (*internalpayments.OrderList, error) {
	s.listParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &internalpayments.OrderList{Items: []models.PaymentOrder{{UserID: userID}}, NextCursor: "next"}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authed(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestCreateOrderRequiresAuthentication(t *testing.T) {
	svc := &stubPaymentsService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/order", strings.NewReader(`{"paymentFor":"SUBSCRIPTION"}`))
	rec := httptest.NewRecorder()

	CreateOrder(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), decodeError(t, rec))
}

func TestCreateOrderPassesDecodedBody(t *testing.T) {
	userID := uuid.New()
	planID := uuid.New()
	svc := &stubPaymentsService{createResult: &internalpayments.CreateOrderResult{
		RemoteOrder: &razorpay.Order{ID: "order_1", AmountMinor: 50000, Currency: "INR"},
		Order:       &models.PaymentOrder{GatewayOrderID: "order_1"},
	}}
	body := `{"paymentFor":"SUBSCRIPTION","subscriptionPlanId":"` + planID.String() + `"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments/order", strings.NewReader(body)), userID)
	rec := httptest.NewRecorder()

	CreateOrder(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, userID, svc.createUser)
	assert.Equal(t, enums.PaymentPurposeSubscription, svc.createInput.PaymentFor)
	require.NotNil(t, svc.createInput.SubscriptionPlanID)
	assert.Equal(t, planID, *svc.createInput.SubscriptionPlanID)

	var payload struct {
		Data struct {
			RazorpayOrder struct {
				ID string `json:"id"`
			} `json:"razorpayOrder"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "order_1", payload.Data.RazorpayOrder.ID)
}

func TestCreateOrderRejectsUnknownFields(t *testing.T) {
	svc := &stubPaymentsService{}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments/order", strings.NewReader(`{"paymentFor":"SUBSCRIPTION","amount":1}`)), uuid.New())
	rec := httptest.NewRecorder()

	CreateOrder(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec))
}

func TestVerifyPaymentResponse(t *testing.T) {
	svc := &stubPaymentsService{transaction: &models.PaymentTransaction{GatewayPaymentID: "pay_1", Status: enums.PaymentTransactionStatusSuccess}}
	body := `{"orderId":"order_1","paymentId":"pay_1","signature":"sig"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()

	VerifyPayment(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order_1", svc.verifyInput.OrderID)
	assert.Equal(t, "sig", svc.verifyInput.Signature)

	var payload struct {
		Data struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Data.Success)
	assert.Equal(t, "payment verified", payload.Data.Message)
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	svc := &stubPaymentsService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"orderId":"order_1"}`))
	rec := httptest.NewRecorder()

	VerifyPayment(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "paymentId")
	assert.Contains(t, rec.Body.String(), "signature")
}

func TestVerifyPaymentMapsServiceErrors(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeSignatureInvalid:      http.StatusBadRequest,
		pkgerrors.CodeAmountMismatch:        http.StatusBadRequest,
		pkgerrors.CodeNotFound:              http.StatusNotFound,
		pkgerrors.CodeInsufficientInventory: http.StatusConflict,
		pkgerrors.CodeGatewayUnavailable:    http.StatusBadGateway,
	}
	for code, status := range cases {
		t.Run(string(code), func(t *testing.T) {
			svc := &stubPaymentsService{err: pkgerrors.New(code, "x")}
			body := `{"orderId":"order_1","paymentId":"pay_1","signature":"sig"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(body))
			rec := httptest.NewRecorder()

			VerifyPayment(svc, testLogger()).ServeHTTP(rec, req)

			assert.Equal(t, status, rec.Code)
			assert.Equal(t, string(code), decodeError(t, rec))
		})
	}
}

func TestCancelPayment(t *testing.T) {
	userID := uuid.New()
	svc := &stubPaymentsService{}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments/cancel", strings.NewReader(`{"orderId":" order_1 "}`)), userID)
	rec := httptest.NewRecorder()

	CancelPayment(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, svc.cancelUser)
	assert.Equal(t, "order_1", svc.cancelOrder)
	assert.JSONEq(t, `{"data":{"success":true}}`, rec.Body.String())
}

func TestCancelPaymentForbidden(t *testing.T) {
	svc := &stubPaymentsService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your order")}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/payments/cancel", strings.NewReader(`{"orderId":"order_1"}`)), uuid.New())
	rec := httptest.NewRecorder()

	CancelPayment(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetOrderReadsURLParam(t *testing.T) {
	svc := &stubPaymentsService{}
	router := chi.NewRouter()
	router.Get("/api/v1/payments/orders/{orderId}", GetOrder(svc, testLogger()))

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/payments/orders/order_42", nil), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order_42", svc.getOrder)
}

func TestListOrdersParsesQuery(t *testing.T) {
	svc := &stubPaymentsService{}
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/payments/orders?limit=5&cursor=abc&status=cancelled", nil), uuid.New())
	rec := httptest.NewRecorder()

	ListOrders(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.listParams.Limit)
	assert.Equal(t, "abc", svc.listParams.Cursor)
	require.NotNil(t, svc.listParams.Status)
	assert.Equal(t, enums.PaymentOrderStatusCancelled, *svc.listParams.Status)
	assert.Contains(t, rec.Body.String(), `"nextCursor":"next"`)
}

func TestListOrdersRejectsBadQuery(t *testing.T) {
	for _, target := range []string{
		"/api/v1/payments/orders?limit=0",
		"/api/v1/payments/orders?limit=abc",
		"/api/v1/payments/orders?status=refunded",
	} {
		svc := &stubPaymentsService{}
		req := authed(httptest.NewRequest(http.MethodGet, target, nil), uuid.New())
		rec := httptest.NewRecorder()

		ListOrders(svc, testLogger()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec), target)
	}
}

func TestListOrdersRequiresAuthentication(t *testing.T) {
	rec := httptest.NewRecorder()
	ListOrders(&stubPaymentsService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
