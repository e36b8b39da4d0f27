package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
)

func newTestService(t *testing.T, name string) (*Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, name)
	repo := NewRepository(conn)
	return NewService(repo, logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})), repo, conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	svc, repo, conn := newTestService(t, "outbox_emit")
	ctx := context.Background()
	orderID := uuid.New()
	userID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventPaymentSucceeded,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: userID, Source: "checkout"},
			Data:          map[string]any{"amount_minor": 20000},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListByAggregate(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventPaymentSucceeded, rows[0].EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, rows[0].ID.String(), envelope.EventID)
	assert.Equal(t, string(enums.EventPaymentSucceeded), envelope.EventType)
	assert.Equal(t, orderID.String(), envelope.AggregateID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, userID, envelope.Actor.UserID)
	assert.JSONEq(t, `{"amount_minor":20000}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	svc, repo, conn := newTestService(t, "outbox_rollback")
	ctx := context.Background()
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventPaymentCancelled,
			AggregateType: enums.AggregatePaymentOrder,
			AggregateID:   orderID,
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	rows, err := repo.ListByAggregate(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitRejectsUnknownTypeAndMissingTx(t *testing.T) {
	svc, _, conn := newTestService(t, "outbox_reject")
	ctx := context.Background()

	assert.Error(t, svc.Emit(ctx, nil, DomainEvent{EventType: enums.EventPaymentFailed}))
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{EventType: "order_shipped", AggregateType: enums.AggregatePaymentOrder})
	})
	assert.Error(t, err)
	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{EventType: enums.EventPaymentFailed, AggregateType: "store"})
	})
	assert.Error(t, err)
}

func TestPublishBookkeeping(t *testing.T) {
	_, repo, conn := newTestService(t, "outbox_bookkeeping")
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)

	published := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPaymentSucceeded, AggregateType: enums.AggregatePaymentOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old}
	dead := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPaymentFailed, AggregateType: enums.AggregatePaymentOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old}
	fresh := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPaymentCancelled, AggregateType: enums.AggregatePaymentOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	for _, row := range []models.OutboxEvent{published, dead, fresh} {
		require.NoError(t, conn.Transaction(func(tx *gorm.DB) error { return repo.Insert(tx, row) }))
	}

	require.NoError(t, repo.MarkPublished(ctx, published.ID))
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("id = ?", published.ID).Update("published_at", old).Error)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailed(ctx, dead.ID, errors.New("topic unavailable")))
	}

	pending, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh.ID, pending[0].ID)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	deleted, err := repo.DeleteExpiredBatch(ctx, cutoff, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	deleted, err = repo.DeleteExpiredBatch(ctx, cutoff, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
