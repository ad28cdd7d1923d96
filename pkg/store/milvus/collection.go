package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/tunogya/rally/pkg/model"
)

const (
	// DefaultCollectionName is the default collection name for entity states
	DefaultCollectionName = "entity_states"

	// DefaultNList is the IVF_FLAT cluster count used by CreateIndex callers
	DefaultNList = 128
)

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int // Vector dimension (feature row count)
	Shards    int // Number of shards
}

// DefaultCollectionConfig returns default collection configuration for the
// default feature ladder (2 + 2*5 + 2*5 rows)
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: 22,
		Shards:    2,
	}
}

// CreateCollection creates the entity_states collection
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "Per entity-timestep feature vectors for similar-state search",
		Fields: []*entity.Field{
			{
				Name:       "state_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "160",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", cfg.Dimension),
				},
			},
			{
				Name:     "run_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "40",
				},
			},
			{
				Name:     "series",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "entity",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "step",
				DataType: entity.FieldTypeInt32,
			},
			{
				Name:     "played_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	err = c.conn.CreateCollection(ctx, schema, int32(cfg.Shards))
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// StateData holds one entity-timestep feature vector
type StateData struct {
	StateID   string
	Embedding []float32
	RunID     string
	Series    string
	Entity    string
	Step      int32
	PlayedAt  time.Time
}

// Insert inserts a single state vector
func (c *Client) Insert(ctx context.Context, collectionName string, data *StateData) error {
	return c.InsertBatch(ctx, collectionName, []*StateData{data})
}

// InsertBatch inserts multiple state vectors
func (c *Client) InsertBatch(ctx context.Context, collectionName string, dataList []*StateData) error {
	if len(dataList) == 0 {
		return nil
	}

	stateIDs := make([]string, len(dataList))
	embeddings := make([][]float32, len(dataList))
	runIDs := make([]string, len(dataList))
	series := make([]string, len(dataList))
	entities := make([]string, len(dataList))
	steps := make([]int32, len(dataList))
	playedAts := make([]int64, len(dataList))

	for i, d := range dataList {
		stateIDs[i] = d.StateID
		embeddings[i] = d.Embedding
		runIDs[i] = d.RunID
		series[i] = d.Series
		entities[i] = d.Entity
		steps[i] = d.Step
		if !d.PlayedAt.IsZero() {
			playedAts[i] = d.PlayedAt.Unix()
		}
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("state_id", stateIDs),
		entity.NewColumnFloatVector("embedding", len(embeddings[0]), embeddings),
		entity.NewColumnVarChar("run_id", runIDs),
		entity.NewColumnVarChar("series", series),
		entity.NewColumnVarChar("entity", entities),
		entity.NewColumnInt32("step", steps),
		entity.NewColumnInt64("played_at", playedAts),
	}

	_, err := c.conn.Insert(ctx, collectionName, "", columns...)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	return nil
}

// SearchResult represents a single search hit
type SearchResult struct {
	StateID  string
	Score    float32 // L2 distance, lower is closer
	RunID    string
	Series   string
	Entity   string
	Step     int32
	PlayedAt time.Time
}

// Search performs a TopK similarity search
func (c *Client) Search(ctx context.Context, collectionName string, embedding []float32, filter string, topK int) ([]SearchResult, error) {
	vectors := []entity.Vector{entity.FloatVector(embedding)}

	sp, err := entity.NewIndexIvfFlatSearchParam(16) // nprobe
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	outputFields := []string{"state_id", "run_id", "series", "entity", "step", "played_at"}

	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil,          // partitions
		filter,       // expression filter
		outputFields, // output fields
		vectors,
		"embedding",
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	searchResults := make([]SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		result := SearchResult{
			Score: results[0].Scores[i],
		}

		for _, field := range results[0].Fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				val, _ := col.ValueByIdx(i)
				switch col.Name() {
				case "state_id":
					result.StateID = val
				case "run_id":
					result.RunID = val
				case "series":
					result.Series = val
				case "entity":
					result.Entity = val
				}
			case *entity.ColumnInt32:
				if col.Name() == "step" {
					result.Step, _ = col.ValueByIdx(i)
				}
			case *entity.ColumnInt64:
				if col.Name() == "played_at" {
					if val, _ := col.ValueByIdx(i); val != 0 {
						result.PlayedAt = time.Unix(val, 0).UTC()
					}
				}
			}
		}

		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// Flush flushes the collection to ensure data persistence
func (c *Client) Flush(ctx context.Context, collectionName string) error {
	return c.conn.Flush(ctx, collectionName, false)
}

// StatesFromFeatures converts every column of fm into a StateData.
// playedAt[n][t] is the time of entity n's t-th result; a nil or short
// slice leaves PlayedAt zero.
func StatesFromFeatures(run *model.FeatureRun, fm *model.FeatureMatrix, playedAt [][]time.Time) []*StateData {
	states := make([]*StateData, 0, fm.Cols)
	for n, name := range run.Entities {
		for t := 0; t < fm.Steps; t++ {
			var at time.Time
			if n < len(playedAt) && t < len(playedAt[n]) {
				at = playedAt[n][t]
			}
			states = append(states, &StateData{
				StateID:   model.StateID(run.RunID, name, t),
				Embedding: fm.Vector32(n, t),
				RunID:     run.RunID,
				Series:    run.Series,
				Entity:    name,
				Step:      int32(t),
				PlayedAt:  at,
			})
		}
	}
	return states
}
