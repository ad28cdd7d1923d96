// Package stats computes per-entity rolling aggregates and recursive
// exponential means over [T, N] matrices. Every column is processed
// independently; rows are time and are never reordered.
//
// Non-finite inputs are not special-cased and propagate into the output.
package stats

import (
	"fmt"

	"github.com/tunogya/rally/pkg/model"
)

// Roll aggregates, for every row i, the rows [max(0, i-h), min(T, i+h))
// column by column. The window is centered and looks ahead: row i sees up to
// h-1 future rows. Callers needing a causal feature must delay it themselves.
func Roll(m model.Matrix, halfWidth int, agg Aggregate) (model.Matrix, error) {
	if m.Rows == 0 {
		return model.Matrix{}, ErrEmptySeries
	}
	if halfWidth < 1 {
		return model.Matrix{}, fmt.Errorf("half-width %d: %w", halfWidth, ErrInvalidWindow)
	}

	result := model.NewMatrix(m.Rows, m.Cols)
	buf := make([]float64, 0, min(m.Rows, 2*halfWidth))

	for j := 0; j < m.Cols; j++ {
		for i := 0; i < m.Rows; i++ {
			start, end := Span(i, halfWidth, m.Rows)
			buf = buf[:0]
			for k := start; k < end; k++ {
				buf = append(buf, m.Data[k*m.Cols+j])
			}
			result.Data[i*m.Cols+j] = agg(buf)
		}
	}

	return result, nil
}

// Span returns the half-open row range aggregated for row i
func Span(i, halfWidth, rows int) (start, end int) {
	return max(0, i-halfWidth), min(rows, i+halfWidth)
}

// RollMean is Roll with Mean
func RollMean(m model.Matrix, halfWidth int) (model.Matrix, error) {
	return Roll(m, halfWidth, Mean)
}

// RollStd is Roll with Std
func RollStd(m model.Matrix, halfWidth int) (model.Matrix, error) {
	return Roll(m, halfWidth, Std)
}
