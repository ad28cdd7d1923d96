// Package postgres reads match results from an existing relational results table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunogya/rally/pkg/model"
)

// DefaultTable is the table read when Config.Table is empty
const DefaultTable = "results"

// Querier is the subset of *pgxpool.Pool used by ResultSource
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Config configures a ResultSource
type Config struct {
	URL   string
	Table string
}

// ResultSource implements data.ResultProvider over Postgres
type ResultSource struct {
	db    Querier
	pool  *pgxpool.Pool
	query string
}

// Connect opens a pool against cfg.URL and pings it
func Connect(ctx context.Context, cfg Config) (*ResultSource, error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	src := NewResultSource(pool, cfg.Table)
	src.pool = pool
	return src, nil
}

// NewResultSource wraps an existing connection or pool
func NewResultSource(db Querier, table string) *ResultSource {
	if table == "" {
		table = DefaultTable
	}
	return &ResultSource{db: db, query: selectQuery(table)}
}

func selectQuery(table string) string {
	return fmt.Sprintf(`
		SELECT series, game_id, entity, outcome, played_at
		FROM %s
		WHERE ($1 = '' OR series = $1) AND played_at >= $2 AND played_at <= $3
		ORDER BY played_at, game_id, entity
	`, pgx.Identifier{table}.Sanitize())
}

// FetchResults returns results of a series within [start, end], in play order.
// An empty series matches every series.
func (s *ResultSource) FetchResults(ctx context.Context, series string, start, end time.Time) ([]model.Result, error) {
	rows, err := s.db.Query(ctx, s.query, series, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Result, error) {
		var r model.Result
		err := row.Scan(&r.Series, &r.GameID, &r.Entity, &r.Outcome, &r.PlayedAt)
		r.PlayedAt = r.PlayedAt.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}
	return results, nil
}

// Close releases the pool opened by Connect
func (s *ResultSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
