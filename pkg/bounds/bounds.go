// Package bounds folds unbounded values into a closed interval by reflecting
// them off its walls, like a ball bouncing inside a corridor. The fold is
// continuous in its input and the identity on [Lo, Hi].
package bounds

import (
	"fmt"
	"math"

	"github.com/tunogya/rally/pkg/model"
)

// Bounds is a closed interval [Lo, Hi]
type Bounds struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Unit is the [0, 1] interval
var Unit = Bounds{Lo: 0, Hi: 1}

// New returns validated bounds
func New(lo, hi float64) (Bounds, error) {
	b := Bounds{Lo: lo, Hi: hi}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate checks lo < hi with both sides finite
func (b Bounds) Validate() error {
	if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) || b.Lo >= b.Hi {
		return fmt.Errorf("[%v, %v]: %w", b.Lo, b.Hi, ErrInvalidBounds)
	}
	return nil
}

// Width returns Hi - Lo
func (b Bounds) Width() float64 {
	return b.Hi - b.Lo
}

// Contains reports whether v lies in [Lo, Hi]
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lo && v <= b.Hi
}

// Reflect folds v into b. The caller must pass valid bounds.
//
// With w = Hi-Lo and k = floor((v-Lo)/w) the number of signed corridor widths
// travelled, the result is
//
//	v*(-1)^|k| + w*k*(-1)^(|k|+1) + (Lo+Hi)*[|k| odd]
//
// NaN and infinite inputs have no position to fold and yield NaN.
func Reflect(v float64, b Bounds) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}

	w := b.Width()
	signed := math.Floor((v - b.Lo) / w)
	odd := math.Mod(math.Abs(signed), 2) == 1

	s := v
	if odd {
		s = -s
		s += w * signed
		s += b.Lo + b.Hi
	} else {
		s -= w * signed
	}

	// absorb rounding at the walls
	if s < b.Lo {
		return b.Lo
	}
	if s > b.Hi {
		return b.Hi
	}
	return s
}

// ReflectAll folds every value into b and returns a new slice
func ReflectAll(values []float64, b Bounds) ([]float64, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = Reflect(v, b)
	}
	return result, nil
}

// ReflectMatrix folds every element of m into b and returns a new matrix
func ReflectMatrix(m model.Matrix, b Bounds) (model.Matrix, error) {
	data, err := ReflectAll(m.Data, b)
	if err != nil {
		return model.Matrix{}, err
	}
	return model.Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}, nil
}
