package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStoreSettingsMigration(t *testing.T) {
	content := readMigration(t, "*_create_store_settings.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS store_settings",
		"shop TEXT NOT NULL UNIQUE",
		"product_sync_status TEXT NOT NULL DEFAULT 'YET_TO_START'",
		"DROP TABLE IF EXISTS store_settings",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestHarvestTasksMigration(t *testing.T) {
	content := readMigration(t, "*_create_harvest_tasks.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS harvest_tasks",
		"payload JSONB NOT NULL",
		"CHECK (attempt_count >= 0)",
		"WHERE completed_at IS NULL",
		"DROP TABLE IF EXISTS harvest_tasks",
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
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
