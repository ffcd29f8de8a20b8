package repotest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pantry-server/src/config"
	"pantry-server/src/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB connects to the database configured in appsettings.TESTING.yaml
// and empties it. Tests are skipped when no database is reachable.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	cfg, err := loadTestConfig()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.SetupDB(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping database test, postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	TruncateTables(t, pool)
	return pool
}

// TruncateTables truncates all tables in the test database
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	tables := []string{
		"sync_metadata",
		"sync_data",
		"users",
	}

	for _, table := range tables {
		_, err := pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Skipf("Skipping database test, table %s unavailable (run migrations first): %v", table, err)
		}
	}
}

func loadTestConfig() (*config.Config, error) {
	serviceRoot, err := getServiceRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to get service root path: %w", err)
	}
	return config.LoadConfig(filepath.Join(serviceRoot, "settings"), "TESTING")
}

// getServiceRoot walks up from the working directory to the one holding go.mod.
func getServiceRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		wd = parent
	}
}
