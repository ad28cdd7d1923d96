package feature

import (
	"github.com/tunogya/rally/pkg/stats"
)

// DefaultTrendHalfWidth is the rolling half-width of the step-mean volatility rows
const DefaultTrendHalfWidth = 10

// Config holds assembler configuration
type Config struct {
	Windows        []int     // rolling half-widths, in row order
	Alphas         []float64 // step-mean smoothing factors, in row order
	Init           float64   // prior blended into the first step mean
	TrendHalfWidth int       // half-width of the rolling std over each step mean
	Parallelism    int       // max concurrent window/alpha tasks (<=0: one per task)
}

// DefaultConfig returns the standard window and alpha ladders
func DefaultConfig() Config {
	return Config{
		Windows:        []int{5, 10, 20, 50, 100},
		Alphas:         []float64{0.85, 0.9, 0.95, 0.975, 0.99},
		Init:           stats.DefaultInit,
		TrendHalfWidth: DefaultTrendHalfWidth,
	}
}

// Rows returns the feature row count for this configuration
func (c Config) Rows() int {
	return 2 + 2*len(c.Windows) + 2*len(c.Alphas)
}
