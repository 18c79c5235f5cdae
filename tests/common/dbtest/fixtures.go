//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// inserts a catalog item with a full pool of copies
func CreateTestItem(t *testing.T, db DBLike, title string, copies int32) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO catalog_items (id, title, total_copies, available_copies) VALUES ($1, $2, $3, $3)",
		itemID, title, copies)
	require.NoError(t, err)

	return itemID
}

// rewrites a loan's due date so overdue paths can be exercised against the
// real clock
func BackdateLoanDueDate(t *testing.T, db DBLike, loanID uuid.UUID, dueDate time.Time) {
	t.Helper()

	ctx := context.Background()
	tag, err := db.Exec(ctx, "UPDATE loans SET due_date = $1 WHERE id = $2", dueDate, loanID)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

// rewrites a reservation's pickup deadline so expiry paths can be exercised
// against the real clock
func BackdateReservationExpiry(t *testing.T, db DBLike, reservationID uuid.UUID, expiresAt time.Time) {
	t.Helper()

	ctx := context.Background()
	tag, err := db.Exec(ctx, "UPDATE reservations SET expires_at = $1 WHERE id = $2", expiresAt, reservationID)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return nil
}
