// Package dbtest opens throwaway SQLite databases that mirror the Postgres
// schema closely enough for repository and service tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh shared-cache in-memory database with the payments schema applied.
func Open(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps transactions from tripping shared-cache table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}
	return conn
}

var schema = []string{
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		inventory INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE subscription_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		period_days INTEGER NOT NULL,
		current_period_start DATETIME,
		current_period_end DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE service_bookings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		scheduled_at DATETIME NOT NULL,
		notes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE payment_orders (
		id TEXT PRIMARY KEY,
		gateway_order_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		purpose TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		booking_id TEXT,
		subscription_id TEXT,
		completed_at DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_payment_orders_pending_booking ON payment_orders (booking_id) WHERE status = 'PENDING' AND booking_id IS NOT NULL`,
	`CREATE TABLE payment_order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES payment_orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE payment_transactions (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		gateway_payment_id TEXT NOT NULL UNIQUE,
		gateway_signature TEXT,
		status TEXT NOT NULL,
		method TEXT,
		amount_paid_minor INTEGER NOT NULL,
		currency TEXT NOT NULL,
		failure_reason TEXT,
		captured_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_payment_transactions_order_success ON payment_transactions (order_id) WHERE status = 'SUCCESS'`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}
