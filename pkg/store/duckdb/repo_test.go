package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/feature"
	"github.com/tunogya/rally/pkg/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, InitializeSchema(context.Background(), c))
	return c
}

func TestResultRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepo(newTestClient(t))
	t0 := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

	results := []model.Result{
		{Series: "rlcs", GameID: "g2", Entity: "a", Outcome: 0, PlayedAt: t0.Add(time.Hour)},
		{Series: "rlcs", GameID: "g1", Entity: "a", Outcome: 1, PlayedAt: t0},
		{Series: "rlcs", GameID: "g1", Entity: "b", Outcome: 0, PlayedAt: t0},
	}
	require.NoError(t, repo.InsertBatch(ctx, results))

	// upsert replaces the outcome
	require.NoError(t, repo.Insert(ctx, &model.Result{Series: "rlcs", GameID: "g2", Entity: "a", Outcome: 0.5, PlayedAt: t0.Add(time.Hour)}))

	count, err := repo.Count(ctx, "rlcs")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	got, err := repo.FetchResults(ctx, "rlcs", t0.Add(-time.Hour), t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "g1", got[0].GameID)
	assert.Equal(t, "a", got[0].Entity)
	assert.Equal(t, 0.5, got[2].Outcome)

	all, err := repo.FetchResults(ctx, "", t0.Add(-time.Hour), t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.FetchResults(ctx, "other", t0.Add(-time.Hour), t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFeatureRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewFeatureRepo(newTestClient(t))

	outcomes, err := model.FromRows([][]float64{{1, 0}, {0.5, 0.5}, {0, 1}})
	require.NoError(t, err)
	windows, alphas := []int{1}, []float64{0.9}
	fm, err := feature.Assemble(outcomes, windows, alphas)
	require.NoError(t, err)

	run := model.NewFeatureRun("rlcs", []string{"a", "b"}, windows, alphas, fm)
	require.NoError(t, repo.InsertRun(ctx, run, fm))

	count, err := repo.Count(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(fm.Rows*fm.Cols), count)

	vec, err := repo.GetVector(ctx, run.RunID, "b", 2)
	require.NoError(t, err)
	assert.Equal(t, fm.Vector(1, 2), vec)

	stored, err := repo.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, stored.Entities)
	assert.Equal(t, windows, stored.Windows)
	assert.Equal(t, alphas, stored.Alphas)
	assert.Equal(t, 3, stored.Steps)

	latest, err := repo.LatestRun(ctx, "rlcs")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, latest)

	bad := model.NewFeatureRun("rlcs", []string{"a"}, windows, alphas, fm)
	assert.Error(t, repo.InsertRun(ctx, bad, fm))
}
