// Package walk generates non-stationary bounded random walks: synthetic
// outcome series whose volatility itself drifts, folded into fixed bounds at
// every step. Used by tests and simulations, never by the production path.
package walk

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/tunogya/rally/pkg/bounds"
	"github.com/tunogya/rally/pkg/model"
)

var (
	// ErrBadShape is returned when steps or paths is below 1
	ErrBadShape = errors.New("walk: steps and paths must be positive")

	// ErrNegativeScale is returned for a negative std or std bounds below zero
	ErrNegativeScale = errors.New("walk: volatility must be non-negative")
)

// Params configures one Synthesize call
type Params struct {
	Initial   float64       // starting level added to the cumulative walk
	Bounds    bounds.Bounds // interval every output value lies in
	Steps     int           // time steps (rows)
	Paths     int           // independent paths (columns)
	Drift     float64       // mean of both the volatility and the level increments
	Std       float64       // scale of the volatility increments
	StdBounds bounds.Bounds // interval the per-step volatility is folded into
}

// DefaultParams returns a single 1000-step path in [0, 1] starting at 0.5
func DefaultParams() Params {
	return Params{
		Initial:   0.5,
		Bounds:    bounds.Unit,
		Steps:     1000,
		Paths:     1,
		Drift:     0,
		Std:       0.001,
		StdBounds: bounds.Bounds{Lo: 0, Hi: 0.05},
	}
}

// Validate checks shape, bounds and scales
func (p Params) Validate() error {
	if p.Steps < 1 || p.Paths < 1 {
		return fmt.Errorf("shape [%d, %d]: %w", p.Steps, p.Paths, ErrBadShape)
	}
	if err := p.Bounds.Validate(); err != nil {
		return fmt.Errorf("walk bounds: %w", err)
	}
	if err := p.StdBounds.Validate(); err != nil {
		return fmt.Errorf("std bounds: %w", err)
	}
	if p.Std < 0 || p.StdBounds.Lo < 0 {
		return ErrNegativeScale
	}
	return nil
}

// Synthesize draws one [Steps, Paths] walk.
//
//  1. vol = |cumsum(N(drift, std)) + std| along the time axis
//  2. vol is reflected into StdBounds
//  3. level = cumsum(N(drift, vol)) + initial
//  4. level is reflected into Bounds
//
// rng is used as-is; a nil rng gets a fresh time-seeded source for this
// call only, so no seeding state survives between calls.
func Synthesize(rng *rand.Rand, p Params) (model.Matrix, error) {
	if err := p.Validate(); err != nil {
		return model.Matrix{}, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	vol := model.NewMatrix(p.Steps, p.Paths)
	cumulativeNormal(rng, vol, p.Drift, func(int) float64 { return p.Std })
	for i, v := range vol.Data {
		vol.Data[i] = bounds.Reflect(math.Abs(v+p.Std), p.StdBounds)
	}

	level := model.NewMatrix(p.Steps, p.Paths)
	cumulativeNormal(rng, level, p.Drift, func(idx int) float64 { return vol.Data[idx] })
	for i, v := range level.Data {
		level.Data[i] = bounds.Reflect(v+p.Initial, p.Bounds)
	}

	return level, nil
}

// cumulativeNormal fills dst with running sums down each column of
// N(mean, scale(idx)) draws. All draws are taken in row-major order first so
// the stream consumption matches a single [Steps, Paths] sample.
func cumulativeNormal(rng *rand.Rand, dst model.Matrix, mean float64, scale func(idx int) float64) {
	for idx := range dst.Data {
		dst.Data[idx] = mean + scale(idx)*rng.NormFloat64()
	}
	for i := 1; i < dst.Rows; i++ {
		for j := 0; j < dst.Cols; j++ {
			dst.Data[i*dst.Cols+j] += dst.Data[(i-1)*dst.Cols+j]
		}
	}
}
