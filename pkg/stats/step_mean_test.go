package stats_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/model"
	"github.com/tunogya/rally/pkg/stats"
)

func TestStepMean_Seed(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 0}, {0.5, 0.5}})

	got, err := stats.StepMean(m, 0.9, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 0.9*0.5+(1-0.9)*1.0, got.At(0, 0))
	assert.Equal(t, 0.9*0.5+(1-0.9)*0.0, got.At(0, 1))
	assert.Equal(t, 0.9*got.At(0, 0)+(1-0.9)*0.5, got.At(1, 0))
}

func TestStepMean_MatchesDirectAccumulation(t *testing.T) {
	const steps = 1500
	rng := rand.New(rand.NewSource(11))
	m := model.NewMatrix(steps, 2)
	for i := range m.Data {
		m.Data[i] = rng.Float64()
	}

	alpha, init := 0.95, 0.5
	got, err := stats.StepMean(m, alpha, init)
	require.NoError(t, err)

	// closed form: alpha^(i+1)*init + sum_k (1-alpha)*alpha^(i-k)*x[k]
	for _, i := range []int{0, 1, 10, 999, steps - 1} {
		for j := 0; j < m.Cols; j++ {
			want := math.Pow(alpha, float64(i+1)) * init
			for k := 0; k <= i; k++ {
				want += (1 - alpha) * math.Pow(alpha, float64(i-k)) * m.At(k, j)
			}
			assert.InDelta(t, want, got.At(i, j), 1e-9, "row %d col %d", i, j)
		}
	}
}

func TestStepMean_OutOfDomainStillComputes(t *testing.T) {
	m := mustRows(t, [][]float64{{1}, {2}})

	got, err := stats.StepMean(m, 1.5, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.5, -1.75}, got.Data, 1e-12)

	assert.ErrorIs(t, stats.ValidateAlpha(1.5), stats.ErrOutOfDomainAlpha)
	assert.ErrorIs(t, stats.ValidateAlpha(0), stats.ErrOutOfDomainAlpha)
	assert.ErrorIs(t, stats.ValidateAlpha(1), stats.ErrOutOfDomainAlpha)
	assert.ErrorIs(t, stats.ValidateAlpha(math.NaN()), stats.ErrOutOfDomainAlpha)
	assert.NoError(t, stats.ValidateAlpha(0.85))
}

func TestStepMean_Empty(t *testing.T) {
	_, err := stats.StepMean(model.NewMatrix(0, 2), 0.9, 0.5)
	assert.ErrorIs(t, err, stats.ErrEmptySeries)

	got, err := stats.StepMean(model.NewMatrix(3, 0), 0.9, 0.5)
	require.NoError(t, err)
	assert.Empty(t, got.Data)
}
