package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// Optional tables are probed once per process; deployments that never
// created them still get live timelines, without progress or ETA columns.
var (
	schemaMu    sync.RWMutex
	knownTables = map[string]bool{}
)

func hasTable(ctx context.Context, q queryer, table string) (bool, error) {
	schemaMu.RLock()
	ok, cached := knownTables[table]
	schemaMu.RUnlock()
	if cached {
		return ok, nil
	}

	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ok = false
	case err != nil:
		// not cached: a bad connection must not hide the table for good
		return false, err
	default:
		ok = name.Valid && name.String != ""
	}

	schemaMu.Lock()
	knownTables[table] = ok
	schemaMu.Unlock()
	return ok, nil
}

func resetSchemaCache() {
	schemaMu.Lock()
	knownTables = map[string]bool{}
	schemaMu.Unlock()
}
