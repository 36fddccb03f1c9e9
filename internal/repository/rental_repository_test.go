package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// getTestDB connects to TEST_DATABASE_URL and skips when Postgres is unavailable.
func getTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestPostgresRentalRepository(t *testing.T) {
	db := getTestDB(t)

	runRepositoryContract(t, func(t *testing.T) RentalRepository {
		_, err := db.Exec(`TRUNCATE rentals, rented_items, overdue_items, returned_items`)
		require.NoError(t, err)
		return NewRentalRepository(db)
	})
}

func TestMigrate_IsRepeatable(t *testing.T) {
	db := getTestDB(t)

	require.NoError(t, Migrate(context.Background(), db))
}
