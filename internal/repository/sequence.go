package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Explicit-key tables and their MAX(key) seed queries. These tables are
// populated with manually sequenced keys: NextKey is called once per
// transaction to seed a local counter and the caller increments in memory
// for subsequent inserts in the same transaction.
//
// Two transactions seeding from the same MAX before either commits will
// allocate overlapping ranges. The schema's consumers mandate explicit keys,
// so this relies on the store's low write concurrency for these tables.
var seedQueries = map[string]string{
	"pm":            `SELECT COALESCE(MAX(idpm), 0) + 1 FROM pm`,
	"rep_nivel":     `SELECT COALESCE(MAX(idrn), 0) + 1 FROM rep_nivel`,
	"rep_actividad": `SELECT COALESCE(MAX(idra), 0) + 1 FROM rep_actividad`,
}

// NextKey returns the next usable surrogate key for one of the explicit-key
// tables, read within the caller's transaction.
func NextKey(ctx context.Context, q rowQuerier, table string) (int64, error) {
	query, ok := seedQueries[table]
	if !ok {
		return 0, fmt.Errorf("no key sequence for table %s", table)
	}
	var next int64
	if err := q.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to seed next key for %s: %w", table, err)
	}
	return next, nil
}
