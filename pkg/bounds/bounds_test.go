package bounds_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/bounds"
	"github.com/tunogya/rally/pkg/model"
)

func TestNew_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		lo, hi float64
	}{
		{"equal", 1, 1},
		{"reversed", 2, 1},
		{"nan lo", math.NaN(), 1},
		{"inf hi", 0, math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bounds.New(tc.lo, tc.hi)
			assert.ErrorIs(t, err, bounds.ErrInvalidBounds)
		})
	}
}

func TestReflect_KnownValues(t *testing.T) {
	cases := []struct {
		v, want float64
	}{
		{1.5, 0.5},
		{-0.5, 0.5},
		{2.5, 0.5},
		{0.25, 0.25},
		{1.0, 1.0},
		{0.0, 0.0},
		{-1.0, 1.0},
		{2.0, 0.0},
		{3.0, 1.0},
		{-1.25, 0.75},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, bounds.Reflect(tc.v, bounds.Unit), 1e-12, "reflect(%v)", tc.v)
	}
}

func TestReflect_ShiftedBounds(t *testing.T) {
	b, err := bounds.New(2, 3)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, bounds.Reflect(3.5, b), 1e-12)
	assert.InDelta(t, 2.5, bounds.Reflect(4.5, b), 1e-12)
	assert.InDelta(t, 2.25, bounds.Reflect(1.75, b), 1e-12)
	assert.InDelta(t, 2.0, bounds.Reflect(2.0, b), 1e-12)
	assert.InDelta(t, 3.0, bounds.Reflect(3.0, b), 1e-12)
}

func TestReflect_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b, err := bounds.New(-0.3, 0.8)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		v := (rng.Float64() - 0.5) * 200
		r := bounds.Reflect(v, b)
		require.True(t, b.Contains(r), "reflect(%v) = %v outside %v", v, r, b)
	}
}

func TestReflect_IdentityOnRange(t *testing.T) {
	b, err := bounds.New(-2, 5)
	require.NoError(t, err)

	for x := -2.0; x <= 5.0; x += 0.125 {
		assert.Equal(t, x, bounds.Reflect(x, b))
	}
}

func TestReflect_Continuous(t *testing.T) {
	const eps = 1e-7
	b := bounds.Unit

	// includes every wall crossing between -3 and 3
	for x := -3.0; x <= 3.0; x += 0.0625 {
		left := bounds.Reflect(x-eps, b)
		right := bounds.Reflect(x+eps, b)
		assert.LessOrEqual(t, math.Abs(right-left), 4*eps, "jump at %v", x)
	}
}

func TestReflect_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(bounds.Reflect(math.NaN(), bounds.Unit)))
	assert.True(t, math.IsNaN(bounds.Reflect(math.Inf(1), bounds.Unit)))
	assert.True(t, math.IsNaN(bounds.Reflect(math.Inf(-1), bounds.Unit)))
}

func TestReflectAll(t *testing.T) {
	in := []float64{1.5, -0.5, 2.5}
	out, err := bounds.ReflectAll(in, bounds.Unit)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, out, 1e-12)
	assert.Equal(t, []float64{1.5, -0.5, 2.5}, in, "input must not be mutated")

	_, err = bounds.ReflectAll(in, bounds.Bounds{Lo: 1, Hi: 0})
	assert.ErrorIs(t, err, bounds.ErrInvalidBounds)
}

func TestReflectMatrix(t *testing.T) {
	m, err := model.FromRows([][]float64{{1.5, 0.2}, {-0.5, 7.25}})
	require.NoError(t, err)

	out, err := bounds.ReflectMatrix(m, bounds.Unit)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Rows)
	assert.Equal(t, 2, out.Cols)
	assert.InDeltaSlice(t, []float64{0.5, 0.2, 0.5, 0.75}, out.Data, 1e-12)
	assert.Equal(t, 1.5, m.At(0, 0))
}
