package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

func seedProduct(t *testing.T, conn *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	p := models.Product{ID: uuid.New(), Name: "item", Price: decimal.NewFromInt(100), Inventory: stock, IsActive: true}
	require.NoError(t, conn.Create(&p).Error)
	return p.ID
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	n, err := NewService().Available(context.Background(), conn, id)
	require.NoError(t, err)
	return n
}

func TestDecrementAndRestock(t *testing.T) {
	conn := dbtest.Open(t, "inventory_basic")
	svc := NewService()
	ctx := context.Background()
	id := seedProduct(t, conn, 5)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Decrement(ctx, tx, []Line{{ProductID: id, Quantity: 2}})
	}))
	assert.Equal(t, 3, stockOf(t, conn, id))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Restock(ctx, tx, []Line{{ProductID: id, Quantity: 2}})
	}))
	assert.Equal(t, 5, stockOf(t, conn, id))
}

func TestDecrementIsAllOrNothingInsideTransaction(t *testing.T) {
	conn := dbtest.Open(t, "inventory_atomic")
	svc := NewService()
	ctx := context.Background()
	plenty := seedProduct(t, conn, 5)
	scarce := seedProduct(t, conn, 1)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Decrement(ctx, tx, []Line{
			{ProductID: plenty, Quantity: 1},
			{ProductID: scarce, Quantity: 2},
		})
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientInventory))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, scarce.String(), details["productId"])
	assert.Equal(t, 1, details["available"])

	assert.Equal(t, 5, stockOf(t, conn, plenty))
	assert.Equal(t, 1, stockOf(t, conn, scarce))
}

func TestNormalizeMergesDuplicateLines(t *testing.T) {
	id := uuid.New()
	lines := normalize([]Line{{ProductID: id, Quantity: 1}, {ProductID: id, Quantity: 2}, {ProductID: uuid.New(), Quantity: 0}})
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestRequiresTransaction(t *testing.T) {
	svc := NewService()
	assert.Error(t, svc.Decrement(context.Background(), nil, nil))
	assert.Error(t, svc.Restock(context.Background(), nil, nil))
}
