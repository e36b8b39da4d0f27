package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/angelmondragon/bookify-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/metrics"
)

const (
	opCreateOrder  = "create_order"
	opFetchPayment = "fetch_payment"

	defaultTimeout = 10 * time.Second
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
)

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client wraps the Razorpay SDK with context deadlines, typed results and
// signature verification.
type Client struct {
	orders        orderAPI
	payments      paymentAPI
	keyID         string
	keySecret     string
	webhookSecret string
	currency      string
	timeout       time.Duration
	metrics       *metrics.PaymentMetrics
}

// NewClient initializes the SDK once with the configured credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, m *metrics.PaymentMetrics, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	api := sdk.NewClient(keyID, keySecret)
	client := newClient(api.Order, api.Payment, cfg, m)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("razorpay client initialized (%s)", client.Mode()))
	}
	return client, nil
}

func newClient(orders orderAPI, payments paymentAPI, cfg config.RazorpayConfig, m *metrics.PaymentMetrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}
	return &Client{
		orders:        orders,
		payments:      payments,
		keyID:         strings.TrimSpace(cfg.KeyID),
		keySecret:     strings.TrimSpace(cfg.KeySecret),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      currency,
		timeout:       timeout,
		metrics:       m,
	}
}

// Mode reports whether test or live keys are configured.
func (c *Client) Mode() string {
	if strings.HasPrefix(c.keyID, "rzp_live_") {
		return "live"
	}
	return "test"
}

// KeyID is the public key the checkout widget needs.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) Currency() string {
	return c.currency
}

// CreateOrder mints a remote order for an amount already expressed in minor units.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "gateway order amount must be positive")
	}
	currency := input.Currency
	if currency == "" {
		currency = c.currency
	}
	payload := map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": currency,
		"receipt":  input.Receipt,
	}
	if len(input.Notes) > 0 {
		notes := make(map[string]interface{}, len(input.Notes))
		for k, v := range input.Notes {
			notes[k] = v
		}
		payload["notes"] = notes
	}

	body, err := c.call(ctx, opCreateOrder, func() (map[string]interface{}, error) {
		return c.orders.Create(payload, nil)
	})
	if err != nil {
		return nil, err
	}
	order := orderFromMap(body)
	if order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "gateway returned order without id")
	}
	return order, nil
}

// FetchPayment reads the authoritative payment state from the gateway.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	body, err := c.call(ctx, opFetchPayment, func() (map[string]interface{}, error) {
		return c.payments.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return paymentFromMap(body), nil
}

// VerifyPaymentSignature checks the checkout callback signature, an HMAC-SHA256
// of "orderID|paymentID" keyed with the key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, c.keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header over the raw body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, c.webhookSecret)
}

// call runs a blocking SDK request bounded by ctx and the configured timeout.
// The SDK has no context support, so an abandoned call finishes in the background.
func (c *Client) call(ctx context.Context, op string, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		body, err := fn()
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		c.metrics.ObserveGateway(op, time.Since(start), ctx.Err())
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, ctx.Err(), fmt.Sprintf("razorpay %s timed out", op))
	case res := <-done:
		c.metrics.ObserveGateway(op, time.Since(start), res.err)
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, res.err, fmt.Sprintf("razorpay %s failed", op))
		}
		return res.body, nil
	}
}
