package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
)

const (
	defaultPendingPaymentTTL = 30 * time.Minute
	defaultSweepBatch        = 100
)

// PendingPaymentSweepJobParams configure the abandoned-order sweep.
type PendingPaymentSweepJobParams struct {
	Logger    *logger.Logger
	Payments  pendingPaymentExpirer
	TTL       time.Duration
	BatchSize int
}

type pendingPaymentExpirer interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentOrder, error)
	ExpireOrder(ctx context.Context, gatewayOrderID string) (bool, error)
}

// NewPendingPaymentSweepJob builds the job that cancels orders left pending past the TTL.
func NewPendingPaymentSweepJob(params PendingPaymentSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &pendingPaymentSweepJob{
		logg:     params.Logger,
		payments: params.Payments,
		ttl:      ttl,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type pendingPaymentSweepJob struct {
	logg     *logger.Logger
	payments pendingPaymentExpirer
	ttl      time.Duration
	batch    int
	now      func() time.Time
}

func (j *pendingPaymentSweepJob) Name() string { return "pending-payment-sweep" }

// Run expires one batch per cycle. A failing order does not stop the rest of
// the batch; all failures are returned together.
func (j *pendingPaymentSweepJob) Run(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.ttl)
	orders, err := j.payments.ListStalePending(ctx, cutoff, j.batch)
	if err != nil {
		return 0, fmt.Errorf("query stale pending orders: %w", err)
	}

	var (
		errs    error
		expired int
		skipped int
	)
	for _, order := range orders {
		ok, err := j.payments.ExpireOrder(ctx, order.GatewayOrderID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.GatewayOrderID, err))
			continue
		}
		if ok {
			expired++
		} else {
			skipped++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"found":   len(orders),
		"expired": expired,
		"skipped": skipped,
		"failed":  len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "pending payment sweep complete")
	return expired, errs
}
