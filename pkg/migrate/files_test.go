package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateDir(DefaultDir); err != nil {
		t.Fatalf("embedded migrations should validate: %v", err)
	}
}

func TestValidateDirRejectsBrokenFiles(t *testing.T) {
	cases := map[string]string{
		"20260101000000_no_down.sql":    "-- +goose Up\nSELECT 1;\n",
		"20260101000000_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"20260101000000_reversed.sql":   "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n",
		"bad-name.sql":                  "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to fail validation", name)
			}
		})
	}
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	for _, name := range []string{"20260101000000_a.sql", "20260101000000_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestRunRequiresDatabase(t *testing.T) {
	if err := Run(t.Context(), nil, DefaultDir, "up", nil); err == nil {
		t.Fatal("expected error without a database")
	}
	if err := MigrateToVersion(t.Context(), nil, DefaultDir, "not-a-version", nil); err == nil {
		t.Fatal("expected error for malformed version")
	}
}

func TestCreateSQLMigrationRejectsEmptySlug(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatal("expected error for name without usable characters")
	}
}
