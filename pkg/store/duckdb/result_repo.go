package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

const upsertResult = `
	INSERT INTO results (series, game_id, entity, outcome, played_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (series, game_id, entity) DO UPDATE SET
		outcome = EXCLUDED.outcome,
		played_at = EXCLUDED.played_at
`

// ResultRepo handles game result persistence
type ResultRepo struct {
	client *Client
}

// NewResultRepo creates a new result repository
func NewResultRepo(client *Client) *ResultRepo {
	return &ResultRepo{client: client}
}

// Insert upserts a single result
func (r *ResultRepo) Insert(ctx context.Context, res *model.Result) error {
	return r.client.Exec(ctx, upsertResult,
		res.Series, res.GameID, res.Entity, res.Outcome, res.PlayedAt.UTC(),
	)
}

// InsertBatch upserts multiple results in a transaction
func (r *ResultRepo) InsertBatch(ctx context.Context, results []model.Result) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertResult)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		_, err := stmt.ExecContext(ctx,
			res.Series, res.GameID, res.Entity, res.Outcome, res.PlayedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	return tx.Commit()
}

// FetchResults retrieves results of a series within a time range, oldest first.
// An empty series matches every series. It satisfies data.ResultProvider.
func (r *ResultRepo) FetchResults(ctx context.Context, series string, start, end time.Time) ([]model.Result, error) {
	query := `
		SELECT series, game_id, entity, outcome, played_at
		FROM results
		WHERE (CAST(? AS VARCHAR) = '' OR series = ?) AND played_at >= ? AND played_at <= ?
		ORDER BY played_at ASC, game_id ASC, entity ASC
	`

	rows, err := r.client.Query(ctx, query, series, series, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.Series, &res.GameID, &res.Entity, &res.Outcome, &res.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// Count returns the total number of results for a series
func (r *ResultRepo) Count(ctx context.Context, series string) (int64, error) {
	var count int64
	row := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM results WHERE series = ?", series)
	err := row.Scan(&count)
	return count, err
}
