package walk_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/bounds"
	"github.com/tunogya/rally/pkg/walk"
)

func TestSynthesize_ShapeAndBounds(t *testing.T) {
	cases := []struct {
		name  string
		steps int
		paths int
		b     bounds.Bounds
		std   float64
	}{
		{"default unit", 1000, 1, bounds.Unit, 0.001},
		{"batch", 250, 8, bounds.Unit, 0.01},
		{"wide volatility", 500, 3, bounds.Bounds{Lo: -1, Hi: 1}, 0.5},
		{"single step", 1, 4, bounds.Bounds{Lo: 10, Hi: 20}, 0.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := walk.DefaultParams()
			p.Steps, p.Paths, p.Bounds, p.Std = tc.steps, tc.paths, tc.b, tc.std
			p.Initial = (tc.b.Lo + tc.b.Hi) / 2
			p.StdBounds = bounds.Bounds{Lo: 0, Hi: 0.3}

			m, err := walk.Synthesize(rand.New(rand.NewSource(42)), p)
			require.NoError(t, err)

			assert.Equal(t, tc.steps, m.Rows)
			assert.Equal(t, tc.paths, m.Cols)
			for _, v := range m.Data {
				require.True(t, tc.b.Contains(v), "value %v outside %v", v, tc.b)
			}
		})
	}
}

func TestSynthesize_Reproducible(t *testing.T) {
	p := walk.DefaultParams()
	p.Steps, p.Paths = 200, 2

	a, err := walk.Synthesize(rand.New(rand.NewSource(3)), p)
	require.NoError(t, err)
	b, err := walk.Synthesize(rand.New(rand.NewSource(3)), p)
	require.NoError(t, err)

	assert.Equal(t, a.Data, b.Data)
}

func TestSynthesize_NilRNG(t *testing.T) {
	m, err := walk.Synthesize(nil, walk.DefaultParams())
	require.NoError(t, err)
	assert.Len(t, m.Data, 1000)
}

func TestSynthesize_Invalid(t *testing.T) {
	p := walk.DefaultParams()
	p.Steps = 0
	_, err := walk.Synthesize(nil, p)
	assert.ErrorIs(t, err, walk.ErrBadShape)

	p = walk.DefaultParams()
	p.Bounds = bounds.Bounds{Lo: 1, Hi: 1}
	_, err = walk.Synthesize(nil, p)
	assert.ErrorIs(t, err, bounds.ErrInvalidBounds)

	p = walk.DefaultParams()
	p.StdBounds = bounds.Bounds{Lo: -0.1, Hi: 0.1}
	_, err = walk.Synthesize(nil, p)
	assert.ErrorIs(t, err, walk.ErrNegativeScale)

	p = walk.DefaultParams()
	p.Std = -1
	_, err = walk.Synthesize(nil, p)
	assert.ErrorIs(t, err, walk.ErrNegativeScale)
}
