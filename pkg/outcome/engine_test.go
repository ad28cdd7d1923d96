package outcome

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/model"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{0, 1, 2, 3, 4}
	assert.Equal(t, 0.0, percentile(sorted, 0))
	assert.Equal(t, 2.0, percentile(sorted, 50))
	assert.InDelta(t, 0.4, percentile(sorted, 10), 1e-12)
	assert.Equal(t, 4.0, percentile(sorted, 100))
	assert.Equal(t, 7.0, percentile([]float64{7}, 90))
}

func TestCalculate(t *testing.T) {
	m, err := model.FromRows([][]float64{{1, 0}, {0, 1}, {1, 1}, {0, 0}})
	require.NoError(t, err)

	results, err := NewEngine(Config{Horizons: []int{2}}).Calculate(m)
	require.NoError(t, err)
	require.Len(t, results, 8)

	// entity 0 at step 0 looks at steps 1..2 = {0, 1}
	assert.Equal(t, 0, results[0].Entity)
	assert.Equal(t, 0, results[0].Step)
	assert.Equal(t, 0.5, results[0].FwdMean)
	assert.Equal(t, 2, results[0].FwdResults)

	// the last two steps run out of forward data
	assert.Equal(t, 1, results[2].FwdResults)
	assert.Equal(t, 0, results[3].FwdResults)
	assert.Equal(t, 0.0, results[3].FwdMean)

	labels := Labels(results, 2, 4, 2)
	assert.Equal(t, 0.5, labels[0])
	assert.Equal(t, 0.5, labels[1])
	assert.True(t, math.IsNaN(labels[2]))
	assert.Equal(t, 1.0, labels[4])

	agg := AggregateResults(results)
	require.Contains(t, agg, 2)
	assert.Equal(t, 4, agg[2].SampleCount)
	assert.Contains(t, agg[2].String(), "Horizon: 2 games")
}

func TestCalculate_InvalidHorizon(t *testing.T) {
	_, err := NewEngine(Config{Horizons: []int{0}}).Calculate(model.NewMatrix(2, 1))
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}
