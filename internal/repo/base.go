// Package repo holds the gorm plumbing shared by the domain repositories.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the connection a repository writes through. WithTx rebinds it
// to a transaction without changing the repository type.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx; a nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx returns a Base writing through tx, or b itself when tx is nil.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// FindByID loads the T row with the given primary key. gorm.ErrRecordNotFound
// is passed through so services can map it to their own not-found error.
func FindByID[T any](ctx context.Context, b Base, id uuid.UUID) (*T, error) {
	var row T
	if err := b.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// TransitionStatus applies updates to the row only while its status column
// holds one of from, stamping updated_at unless the caller set it. Zero rows
// changed means the row is missing or another writer moved it first.
func TransitionStatus[S ~string](ctx context.Context, b Base, model any, id uuid.UUID, from []S, updates map[string]any) (int64, error) {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := b.DB(ctx).
		Model(model).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}
