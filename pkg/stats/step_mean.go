package stats

import (
	"fmt"

	"github.com/tunogya/rally/pkg/model"
)

// DefaultInit is the prior blended into the first step mean
const DefaultInit = 0.5

// StepMean computes the exponentially weighted mean of every column:
//
//	out[0] = alpha*init + (1-alpha)*m[0]
//	out[i] = alpha*out[i-1] + (1-alpha)*m[i]
//
// The seed blends the constant prior with the first observation rather than
// starting from m[0] alone. alpha is not validated here, see ValidateAlpha.
func StepMean(m model.Matrix, alpha, init float64) (model.Matrix, error) {
	if m.Rows == 0 {
		return model.Matrix{}, ErrEmptySeries
	}

	result := model.NewMatrix(m.Rows, m.Cols)
	for j := 0; j < m.Cols; j++ {
		result.Data[j] = alpha*init + (1-alpha)*m.Data[j]
	}
	for i := 1; i < m.Rows; i++ {
		row := i * m.Cols
		prev := (i - 1) * m.Cols
		for j := 0; j < m.Cols; j++ {
			result.Data[row+j] = alpha*result.Data[prev+j] + (1-alpha)*m.Data[row+j]
		}
	}

	return result, nil
}

// ValidateAlpha returns ErrOutOfDomainAlpha unless 0 < alpha < 1
func ValidateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("alpha %v: %w", alpha, ErrOutOfDomainAlpha)
	}
	return nil
}
