package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/printforge/printforge-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestFilamentMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_filaments.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS filaments",
		"CREATE TABLE IF NOT EXISTS filament_movements",
		"FOREIGN KEY (filament_id) REFERENCES filaments(id) ON DELETE CASCADE",
		"CHECK (weight_g >= 0)",
		"DROP TABLE IF EXISTS filament_movements",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestQuoteMigrationCascadesItems(t *testing.T) {
	content := readMigration(t, "*_create_quotes.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_quotes_tenant_number",
		"FOREIGN KEY (quote_id) REFERENCES quotes(id) ON DELETE CASCADE",
		"FOREIGN KEY (quote_item_id) REFERENCES quote_items(id) ON DELETE CASCADE",
		"CHECK (quantity >= 1)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrderMigrationFreezesSnapshotColumns(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"item_cost numeric(12,2) NOT NULL",
		"unit_price numeric(12,2) NOT NULL",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_tenant_number",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
