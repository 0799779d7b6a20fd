package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadPostgres reads a catalogue from the strings table of the database at
// dsn. The table has the same layout as the SQLite store.
func LoadPostgres(ctx context.Context, dsn string) ([]Record, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	rows, err := pool.Query(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("query strings: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.Locale, &r.Key, &r.Template)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("read strings: %w", err)
	}
	return records, nil
}
