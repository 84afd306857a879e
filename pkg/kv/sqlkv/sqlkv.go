// Package sqlkv implements kv.Store on top of a database/sql connection.
// Statements are built with ent's dialect-aware SQL builders so the same
// driver serves both SQLite and PostgreSQL.
package sqlkv

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/cliptape/pkg/kv"
)

const (
	tableName    = "kv_entries"
	colName      = "name"
	colValue     = "value"
	colUpdatedAt = "updated_at"
)

// schema holds the create statement per dialect. Values are kept as TEXT so
// documents round-trip byte for byte.
var schema = map[string]string{
	dialect.SQLite: `CREATE TABLE IF NOT EXISTS kv_entries (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	dialect.Postgres: `CREATE TABLE IF NOT EXISTS kv_entries (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

// Driver implements kv.Store against a SQL database.
type Driver struct {
	*kv.Notifier

	db      *sql.DB
	dialect string

	// mu orders writes so subscribers observe changes in commit order.
	mu sync.Mutex

	now func() time.Time
}

// New wraps db, creating the key-value table when it does not exist.
// dialectName is one of entgo.io/ent/dialect's SQLite or Postgres.
func New(ctx context.Context, db *sql.DB, dialectName string) (*Driver, error) {
	ddl, ok := schema[dialectName]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect: %q", dialectName)
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{
		Notifier: kv.NewNotifier(),
		db:       db,
		dialect:  dialectName,
		now:      time.Now,
	}, nil
}

// Get returns the stored values for keys.
func (d *Driver) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	return d.selectValues(ctx, d.db, keys)
}

// Set upserts every value in a single transaction and notifies subscribers
// of the keys whose value changed.
func (d *Driver) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	keys := slices.Sorted(maps.Keys(values))
	before, err := d.selectValues(ctx, tx, keys)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	updatedAt := d.now().UnixMilli()
	for _, key := range keys {
		query, args := entsql.Dialect(d.dialect).
			Insert(tableName).
			Columns(colName, colValue, colUpdatedAt).
			Values(key, string(values[key]), updatedAt).
			OnConflict(
				entsql.ConflictColumns(colName),
				entsql.ResolveWithNewValues(),
			).
			Query()

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("writing key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.Publish(kv.Diff(before, values)...)
	return nil
}

// Close ends all subscriptions and closes the database.
func (d *Driver) Close() error {
	d.Notifier.Close()
	return d.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (d *Driver) selectValues(ctx context.Context, q queryer, keys []string) (map[string]json.RawMessage, error) {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	b := entsql.Dialect(d.dialect)
	query, qargs := b.Select(colName, colValue).
		From(b.Table(tableName)).
		Where(entsql.In(colName, args...)).
		Query()

	rows, err := q.QueryContext(ctx, query, qargs...)
	if err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}
	defer rows.Close()

	result := make(map[string]json.RawMessage, len(keys))
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		result[name] = json.RawMessage(value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return result, nil
}
