package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/bookify-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

type stubOrders struct {
	got  map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (s *stubOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	s.got = data
	return s.resp, s.err
}

type stubPayments struct {
	resp  map[string]interface{}
	err   error
	delay time.Duration
}

func (s *stubPayments) Fetch(_ string, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.resp, s.err
}

func testConfig() config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "key_secret",
		WebhookSecret: "hook_secret",
		Currency:      "inr",
		Timeout:       time.Second,
	}
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	orders := &stubOrders{resp: map[string]interface{}{
		"id":       "order_123",
		"amount":   float64(20000),
		"currency": "INR",
		"receipt":  "rcpt",
		"status":   "created",
	}}
	client := newClient(orders, &stubPayments{}, testConfig(), nil)

	order, err := client.CreateOrder(context.Background(), CreateOrderInput{
		AmountMinor: 20000,
		Receipt:     "rcpt",
		Notes:       map[string]string{"purpose": "PRODUCT_PURCHASE"},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if orders.got["amount"] != int64(20000) {
		t.Fatalf("expected amount 20000 in payload, got %v", orders.got["amount"])
	}
	if orders.got["currency"] != "INR" {
		t.Fatalf("expected normalized currency INR, got %v", orders.got["currency"])
	}
	if order.ID != "order_123" || order.AmountMinor != 20000 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCreateOrderMapsTransportErrors(t *testing.T) {
	client := newClient(&stubOrders{err: errors.New("connection refused")}, &stubPayments{}, testConfig(), nil)

	_, err := client.CreateOrder(context.Background(), CreateOrderInput{AmountMinor: 100, Receipt: "r"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	orders := &stubOrders{}
	client := newClient(orders, &stubPayments{}, testConfig(), nil)

	_, err := client.CreateOrder(context.Background(), CreateOrderInput{AmountMinor: 0})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if orders.got != nil {
		t.Fatal("gateway must not be called for a zero amount")
	}
}

func TestFetchPaymentParsesResponse(t *testing.T) {
	payments := &stubPayments{resp: map[string]interface{}{
		"id":       "pay_1",
		"order_id": "order_1",
		"amount":   float64(49900),
		"currency": "INR",
		"status":   "captured",
		"method":   "upi",
	}}
	client := newClient(&stubOrders{}, payments, testConfig(), nil)

	payment, err := client.FetchPayment(context.Background(), "pay_1")
	if err != nil {
		t.Fatalf("FetchPayment returned error: %v", err)
	}
	if payment.AmountMinor != 49900 || payment.Method != "upi" || !payment.IsSettled() {
		t.Fatalf("unexpected payment %+v", payment)
	}
}

func TestFetchPaymentHonorsTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	client := newClient(&stubOrders{}, &stubPayments{delay: 200 * time.Millisecond}, cfg, nil)

	_, err := client.FetchPayment(context.Background(), "pay_1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable on timeout, got %v", err)
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := newClient(&stubOrders{}, &stubPayments{}, testConfig(), nil)
	good := sign("key_secret", "order_1|pay_1")

	if !client.VerifyPaymentSignature("order_1", "pay_1", good) {
		t.Fatal("expected valid signature to verify")
	}
	if client.VerifyPaymentSignature("order_1", "pay_2", good) {
		t.Fatal("signature must be bound to the payment id")
	}
	if client.VerifyPaymentSignature("order_1", "pay_1", "") {
		t.Fatal("empty signature must fail")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newClient(&stubOrders{}, &stubPayments{}, testConfig(), nil)
	body := []byte(`{"event":"payment.captured"}`)

	if !client.VerifyWebhookSignature(body, sign("hook_secret", string(body))) {
		t.Fatal("expected webhook signature to verify")
	}
	if client.VerifyWebhookSignature(body, sign("key_secret", string(body))) {
		t.Fatal("webhook must be verified with the webhook secret")
	}
}

func TestModeFromKeyPrefix(t *testing.T) {
	cfg := testConfig()
	cfg.KeyID = "rzp_live_abc"
	if got := newClient(&stubOrders{}, &stubPayments{}, cfg, nil).Mode(); got != "live" {
		t.Fatalf("expected live mode, got %s", got)
	}
}
