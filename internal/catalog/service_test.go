package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookify-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

func TestService_ProductsByID(t *testing.T) {
	conn := dbtest.Open(t, "catalog_products")
	active := models.Product{ID: uuid.New(), Name: "Shampoo", Price: decimal.NewFromInt(100), Inventory: 5, IsActive: true}
	inactive := models.Product{ID: uuid.New(), Name: "Old", Price: decimal.NewFromInt(10), Inventory: 5, IsActive: false}
	require.NoError(t, conn.Create(&active).Error)
	require.NoError(t, conn.Create(&inactive).Error)
	// gorm skips zero-value bools with a default tag on insert
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.ProductsByID(ctx, []uuid.UUID{active.ID})
	require.NoError(t, err)
	require.Contains(t, got, active.ID)
	assert.True(t, got[active.ID].Price.Equal(decimal.NewFromInt(100)))

	_, err = svc.ProductsByID(ctx, []uuid.UUID{active.ID, inactive.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "inactive product should be hidden, got %v", err)

	_, err = svc.ProductsByID(ctx, []uuid.UUID{uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestService_ServiceAndPlanLookups(t *testing.T) {
	conn := dbtest.Open(t, "catalog_lookups")
	offering := models.ServiceOffering{ID: uuid.New(), Name: "Haircut", Price: decimal.NewFromInt(300), DurationMinutes: 30, IsActive: true}
	plan := models.SubscriptionPlan{ID: uuid.New(), Name: "Gold", Price: decimal.NewFromInt(500), DurationDays: 30, IsActive: true}
	require.NoError(t, conn.Create(&offering).Error)
	require.NoError(t, conn.Create(&plan).Error)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	gotSvc, err := svc.Service(ctx, offering.ID)
	require.NoError(t, err)
	assert.Equal(t, "Haircut", gotSvc.Name)

	gotPlan, err := svc.Plan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, gotPlan.DurationDays)

	_, err = svc.Service(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Plan(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
