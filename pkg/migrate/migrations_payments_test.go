package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/bookify-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestPaymentTransactionsMigrationEnforcesSingleSuccess(t *testing.T) {
	content := readMigration(t, "create_payment_transactions")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_transactions",
		"CONSTRAINT ux_payment_transactions_gateway_payment_id UNIQUE (gateway_payment_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_transactions_order_success",
		"ON payment_transactions (order_id) WHERE status = 'SUCCESS'",
		"DROP TABLE IF EXISTS payment_transactions",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationKeepsInventoryNonNegative(t *testing.T) {
	content := readMigration(t, "create_catalog_tables")
	if !strings.Contains(content, "CHECK (inventory >= 0)") {
		t.Fatal("products.inventory must be guarded by a non-negative check")
	}
}

func TestPaymentOrdersMigrationConstraints(t *testing.T) {
	content := readMigration(t, "create_payment_orders")

	checks := []string{
		"CONSTRAINT ux_payment_orders_gateway_order_id UNIQUE (gateway_order_id)",
		"amount numeric(12,2) NOT NULL CHECK (amount > 0)",
		"quantity integer NOT NULL CHECK (quantity > 0)",
		"FOREIGN KEY (order_id) REFERENCES payment_orders(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirectoryValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Refund Queue!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_refund_queue.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestPendingBookingIndexAllowsOneOpenOrder(t *testing.T) {
	content := readMigration(t, "payment_orders_pending_booking")
	for _, sub := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_orders_pending_booking",
		"ON payment_orders (booking_id) WHERE status = 'PENDING'",
		"DROP INDEX IF EXISTS ux_payment_orders_pending_booking",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
