package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/model"
	"github.com/tunogya/rally/pkg/stats"
)

func mustRows(t *testing.T, rows [][]float64) model.Matrix {
	t.Helper()
	m, err := model.FromRows(rows)
	require.NoError(t, err)
	return m
}

func TestMeanStd(t *testing.T) {
	assert.InDelta(t, 2.5, stats.Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), stats.Std([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, stats.Std([]float64{7}))
	assert.True(t, math.IsNaN(stats.Mean(nil)))
}

func TestSpan(t *testing.T) {
	cases := []struct {
		i, h, rows int
		start, end int
	}{
		{0, 1, 5, 0, 1},
		{2, 1, 5, 1, 3},
		{4, 1, 5, 3, 5},
		{0, 3, 5, 0, 3},
		{4, 3, 5, 1, 5},
		{2, 10, 5, 0, 5},
	}
	for _, tc := range cases {
		start, end := stats.Span(tc.i, tc.h, tc.rows)
		assert.Equal(t, tc.start, start, "start for i=%d h=%d", tc.i, tc.h)
		assert.Equal(t, tc.end, end, "end for i=%d h=%d", tc.i, tc.h)
	}
}

func TestRollMean_SmallWindow(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 10}, {2, 20}, {3, 30}, {4, 40}})

	got, err := stats.RollMean(m, 1)
	require.NoError(t, err)

	// h=1 covers rows [i-1, i+1): the previous row and the current one
	want := []float64{
		1, 10,
		1.5, 15,
		2.5, 25,
		3.5, 35,
	}
	assert.InDeltaSlice(t, want, got.Data, 1e-12)
}

func TestRollMean_LookAhead(t *testing.T) {
	m := mustRows(t, [][]float64{{0}, {0}, {9}})

	got, err := stats.RollMean(m, 2)
	require.NoError(t, err)

	// row 0 aggregates rows 0 and 1; row 1 already sees row 2
	assert.InDeltaSlice(t, []float64{0, 3, 3}, got.Data, 1e-12)
}

func TestRollMean_WideWindowIsGlobalMean(t *testing.T) {
	m := mustRows(t, [][]float64{{1, -1}, {0.5, 2}, {0, 4}, {2, 3}})

	for _, h := range []int{4, 5, 100} {
		got, err := stats.RollMean(m, h)
		require.NoError(t, err)
		for i := 0; i < m.Rows; i++ {
			assert.InDelta(t, 0.875, got.At(i, 0), 1e-12)
			assert.InDelta(t, 2.0, got.At(i, 1), 1e-12)
		}
	}
}

func TestRollStd(t *testing.T) {
	m := mustRows(t, [][]float64{{1}, {3}, {5}})

	got, err := stats.RollStd(m, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 1}, got.Data, 1e-12)
}

func TestRoll_CustomAggregate(t *testing.T) {
	m := mustRows(t, [][]float64{{1}, {5}, {2}})
	maxAgg := func(values []float64) float64 {
		out := math.Inf(-1)
		for _, v := range values {
			out = math.Max(out, v)
		}
		return out
	}

	got, err := stats.Roll(m, 2, maxAgg)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5}, got.Data)
}

func TestRoll_Errors(t *testing.T) {
	_, err := stats.RollMean(model.NewMatrix(0, 3), 2)
	assert.ErrorIs(t, err, stats.ErrEmptySeries)

	_, err = stats.RollMean(model.NewMatrix(3, 1), 0)
	assert.ErrorIs(t, err, stats.ErrInvalidWindow)
}

func TestRoll_NoEntities(t *testing.T) {
	got, err := stats.RollMean(model.NewMatrix(4, 0), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rows)
	assert.Equal(t, 0, got.Cols)
	assert.Empty(t, got.Data)
}

func TestRoll_NaNPropagates(t *testing.T) {
	m := mustRows(t, [][]float64{{1}, {math.NaN()}, {1}, {1}, {1}})

	got, err := stats.RollMean(m, 1)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got.At(0, 0)))
	assert.True(t, math.IsNaN(got.At(1, 0)))
	assert.True(t, math.IsNaN(got.At(2, 0)))
	assert.False(t, math.IsNaN(got.At(3, 0)))
}
