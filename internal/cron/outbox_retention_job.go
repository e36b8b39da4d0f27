package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/bookify-backend/pkg/logger"
)

const (
	outboxRetentionDays    = 30
	outboxMaxAttempts      = 5
	outboxDeleteBatch      = 500
	outboxMaxBatchesPerRun = 20
)

type outboxPruner interface {
	DeleteExpiredBatch(ctx context.Context, cutoff time.Time, maxAttempts, limit int) (int64, error)
}

// OutboxRetentionJobParams configure pruning of delivered and dead outbox rows.
// MaxAttempts should match the publisher's limit so only rows it gave up on
// are treated as dead.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    outboxPruner
	RetentionDays int
	MaxAttempts   int
	BatchSize     int
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	repo        outboxPruner
	retention   time.Duration
	maxAttempts int
	batchSize   int
	now         func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		repo:        params.Repository,
		retention:   time.Duration(orDefault(params.RetentionDays, outboxRetentionDays)) * 24 * time.Hour,
		maxAttempts: orDefault(params.MaxAttempts, outboxMaxAttempts),
		batchSize:   orDefault(params.BatchSize, outboxDeleteBatch),
		now:         time.Now,
	}
	return job, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes expired rows in bounded batches so a large backlog never holds
// one long delete. Leftovers are picked up on the next cycle.
func (j *outboxRetentionJob) Run(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	var total int64
	batches := 0
	for ; batches < outboxMaxBatchesPerRun; batches++ {
		if err := ctx.Err(); err != nil {
			return int(total), err
		}
		n, err := j.repo.DeleteExpiredBatch(ctx, cutoff, j.maxAttempts, j.batchSize)
		if err != nil {
			return int(total), fmt.Errorf("outbox retention batch %d: %w", batches+1, err)
		}
		total += n
		if n < int64(j.batchSize) {
			batches++
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"max_attempts": j.maxAttempts,
		"batches":      batches,
		"rows_deleted": total,
	}), "outbox.retention_complete")
	return int(total), nil
}
