package duckdb

import (
	"context"
	"fmt"
)

// Schema contains table creation statements for all required tables

// CreateResultsTable creates the results fact table
const CreateResultsTable = `
CREATE TABLE IF NOT EXISTS results (
    series VARCHAR NOT NULL,
    game_id VARCHAR NOT NULL,
    entity VARCHAR NOT NULL,
    outcome DOUBLE,
    played_at TIMESTAMP NOT NULL,
    PRIMARY KEY (series, game_id, entity)
);

CREATE INDEX IF NOT EXISTS idx_results_entity ON results(series, entity);
CREATE INDEX IF NOT EXISTS idx_results_played_at ON results(played_at);
`

// CreateFeatureRunsTable creates the feature run index table
const CreateFeatureRunsTable = `
CREATE TABLE IF NOT EXISTS feature_runs (
    run_id VARCHAR PRIMARY KEY,
    series VARCHAR NOT NULL,
    steps INTEGER NOT NULL,
    entities INTEGER NOT NULL,
    feature_rows INTEGER NOT NULL,
    windows VARCHAR NOT NULL,
    alphas VARCHAR NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// CreateFeaturesTable creates the long-format feature value table
const CreateFeaturesTable = `
CREATE TABLE IF NOT EXISTS features (
    run_id VARCHAR NOT NULL,
    entity VARCHAR NOT NULL,
    step INTEGER NOT NULL,
    feature INTEGER NOT NULL,
    name VARCHAR NOT NULL,
    value DOUBLE,
    PRIMARY KEY (run_id, entity, step, feature)
);
`

// InitializeSchema creates all required tables
func InitializeSchema(ctx context.Context, c *Client) error {
	schemas := []string{
		CreateResultsTable,
		CreateFeatureRunsTable,
		CreateFeaturesTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution)
func DropAllTables(ctx context.Context, c *Client) error {
	tables := []string{"features", "feature_runs", "results"}
	for _, table := range tables {
		if err := c.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
