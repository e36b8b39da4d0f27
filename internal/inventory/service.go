package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

// Line is a product quantity to take from or return to stock.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service adjusts product stock inside a caller-owned transaction.
type Service interface {
	Decrement(ctx context.Context, tx *gorm.DB, lines []Line) error
	Restock(ctx context.Context, tx *gorm.DB, lines []Line) error
	Available(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error)
}

type service struct{}

func NewService() Service {
	return service{}
}

// Decrement takes stock for every line or fails with InsufficientInventory.
// Each product is updated with a single conditional statement so concurrent
// orders cannot oversell; the caller rolls back earlier lines on error.
func (service) Decrement(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return errors.New("transaction required for inventory decrement")
	}
	for _, line := range normalize(lines) {
		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET inventory = inventory - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND inventory >= ?
		`, line.Quantity, line.ProductID, line.Quantity)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement inventory")
		}
		if res.RowsAffected == 1 {
			continue
		}

		available, err := service{}.Available(ctx, tx, line.ProductID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient inventory").
			WithDetails(map[string]any{
				"productId": line.ProductID.String(),
				"requested": line.Quantity,
				"available": available,
			})
	}
	return nil
}

func (service) Restock(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return errors.New("transaction required for inventory restock")
	}
	for _, line := range normalize(lines) {
		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET inventory = inventory + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, line.Quantity, line.ProductID)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock inventory")
		}
	}
	return nil
}

func (service) Available(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, errors.New("database handle required")
	}
	var stock struct{ Inventory int }
	err := tx.WithContext(ctx).Raw(`SELECT inventory FROM products WHERE id = ?`, productID).Scan(&stock).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory")
	}
	return stock.Inventory, nil
}

// normalize merges repeated products, drops empty lines and orders by product id
// so concurrent transactions lock rows in the same sequence.
func normalize(lines []Line) []Line {
	merged := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		merged[line.ProductID] += line.Quantity
	}
	out := make([]Line, 0, len(merged))
	for id, qty := range merged {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}
