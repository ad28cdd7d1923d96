package duckdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tunogya/rally/pkg/model"
)

// FeatureRepo handles feature matrix persistence in long format:
// one row per (run, entity, step, feature)
type FeatureRepo struct {
	client *Client
}

// NewFeatureRepo creates a new feature repository
func NewFeatureRepo(client *Client) *FeatureRepo {
	return &FeatureRepo{client: client}
}

// InsertRun stores the run header and every value of fm in one transaction.
// run.Entities names fm's entity columns in order.
func (r *FeatureRepo) InsertRun(ctx context.Context, run *model.FeatureRun, fm *model.FeatureMatrix) error {
	if len(run.Entities) != fm.Entities {
		return fmt.Errorf("run has %d entity names for %d entities", len(run.Entities), fm.Entities)
	}

	windows, err := json.Marshal(run.Windows)
	if err != nil {
		return fmt.Errorf("failed to encode windows: %w", err)
	}
	alphas, err := json.Marshal(run.Alphas)
	if err != nil {
		return fmt.Errorf("failed to encode alphas: %w", err)
	}

	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feature_runs (run_id, series, steps, entities, feature_rows, windows, alphas, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO NOTHING
	`, run.RunID, run.Series, run.Steps, len(run.Entities), run.Rows, string(windows), string(alphas), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feature run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO features (run_id, entity, step, feature, name, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, entity, step, feature) DO UPDATE SET
			name = EXCLUDED.name,
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for n, entity := range run.Entities {
		for t := 0; t < fm.Steps; t++ {
			col := fm.ColumnIndex(n, t)
			for f := 0; f < fm.Rows; f++ {
				_, err := stmt.ExecContext(ctx, run.RunID, entity, t, f, fm.Names[f], fm.At(f, col))
				if err != nil {
					return fmt.Errorf("failed to insert feature: %w", err)
				}
			}
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run header by ID. Entities are not stored on the header
// and are loaded from the feature rows.
func (r *FeatureRepo) GetRun(ctx context.Context, runID string) (*model.FeatureRun, error) {
	row := r.client.QueryRow(ctx, `
		SELECT run_id, series, steps, feature_rows, windows, alphas, created_at
		FROM feature_runs
		WHERE run_id = ?
	`, runID)

	var run model.FeatureRun
	var windows, alphas string
	err := row.Scan(&run.RunID, &run.Series, &run.Steps, &run.Rows, &windows, &alphas, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(windows), &run.Windows); err != nil {
		return nil, fmt.Errorf("failed to decode windows: %w", err)
	}
	if err := json.Unmarshal([]byte(alphas), &run.Alphas); err != nil {
		return nil, fmt.Errorf("failed to decode alphas: %w", err)
	}

	rows, err := r.client.Query(ctx,
		"SELECT DISTINCT entity FROM features WHERE run_id = ? ORDER BY entity", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entity string
		if err := rows.Scan(&entity); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		run.Entities = append(run.Entities, entity)
	}

	return &run, rows.Err()
}

// LatestRun returns the most recent run ID of a series
func (r *FeatureRepo) LatestRun(ctx context.Context, series string) (string, error) {
	var runID string
	row := r.client.QueryRow(ctx, `
		SELECT run_id FROM feature_runs
		WHERE series = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, series)
	err := row.Scan(&runID)
	return runID, err
}

// GetVector retrieves the feature vector of one entity-timestep in row order
func (r *FeatureRepo) GetVector(ctx context.Context, runID, entity string, step int) ([]float64, error) {
	rows, err := r.client.Query(ctx, `
		SELECT value FROM features
		WHERE run_id = ? AND entity = ? AND step = ?
		ORDER BY feature ASC
	`, runID, entity, step)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var vector []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		vector = append(vector, v)
	}

	return vector, rows.Err()
}

// Count returns the number of stored feature values for a run
func (r *FeatureRepo) Count(ctx context.Context, runID string) (int64, error) {
	var count int64
	row := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM features WHERE run_id = ?", runID)
	err := row.Scan(&count)
	return count, err
}
