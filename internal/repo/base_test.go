package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

func seedSubscription(t *testing.T, conn *gorm.DB, status enums.SubscriptionStatus) uuid.UUID {
	t.Helper()
	plan := models.SubscriptionPlan{ID: uuid.New(), Name: "monthly", DurationDays: 30}
	if err := conn.Create(&plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	sub := models.Subscription{ID: uuid.New(), UserID: uuid.New(), PlanID: plan.ID, Status: status, PeriodDays: 30}
	if err := conn.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub.ID
}

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t, "repo_base_ctx")
	base := NewBase(conn)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	if base.DB(nil) != conn {
		t.Fatalf("expected nil context to return raw connection")
	}
	if base.WithTx(nil).db != conn {
		t.Fatalf("expected nil tx to keep the base connection")
	}
}

func TestFindByID(t *testing.T) {
	conn := dbtest.Open(t, "repo_base_find")
	base := NewBase(conn)
	id := seedSubscription(t, conn, enums.SubscriptionStatusPending)

	sub, err := FindByID[models.Subscription](context.Background(), base, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if sub.ID != id {
		t.Fatalf("loaded wrong row %s", sub.ID)
	}

	_, err = FindByID[models.Subscription](context.Background(), base, uuid.New())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestTransitionStatusGuardsOnCurrentStatus(t *testing.T) {
	conn := dbtest.Open(t, "repo_base_transition")
	base := NewBase(conn)
	ctx := context.Background()
	id := seedSubscription(t, conn, enums.SubscriptionStatusPending)

	n, err := TransitionStatus(ctx, base, &models.Subscription{}, id,
		[]enums.SubscriptionStatus{enums.SubscriptionStatusPending},
		map[string]any{"status": enums.SubscriptionStatusConfirmed})
	if err != nil || n != 1 {
		t.Fatalf("expected one row moved, got %d (%v)", n, err)
	}

	n, err = TransitionStatus(ctx, base, &models.Subscription{}, id,
		[]enums.SubscriptionStatus{enums.SubscriptionStatusPending},
		map[string]any{"status": enums.SubscriptionStatusCancelled, "updated_at": time.Now().UTC()})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected stale transition to be a no-op, moved %d", n)
	}
}
