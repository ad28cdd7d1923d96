package outcome

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tunogya/rally/pkg/model"
)

// ErrInvalidHorizon is returned for a horizon below 1
var ErrInvalidHorizon = errors.New("outcome: horizon must be at least 1")

// Engine calculates forward-looking outcome statistics per entity-timestep.
// These are the targets a model trained on the feature matrix predicts.
type Engine struct {
	config Config
}

// NewEngine creates a new outcome engine
func NewEngine(cfg Config) *Engine {
	return &Engine{config: cfg}
}

// Config holds configuration for outcome calculation
type Config struct {
	Horizons []int // Forward horizons (number of games)
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Horizons: []int{1, 5, 20},
	}
}

// Result holds outcome statistics for a single entity-step-horizon triple
type Result struct {
	Entity     int
	Step       int
	Horizon    int
	FwdMean    float64
	FwdP10     float64
	FwdP50     float64
	FwdP90     float64
	FwdResults int // Number of forward results actually found
}

// Calculate computes forward statistics for every entity and step of an
// Outcome Matrix, using the engine's horizons. Results are ordered
// entity-major, then step, then horizon, matching feature matrix columns.
func (e *Engine) Calculate(outcomes model.Matrix) ([]Result, error) {
	for _, h := range e.config.Horizons {
		if h < 1 {
			return nil, fmt.Errorf("horizon %d: %w", h, ErrInvalidHorizon)
		}
	}

	results := make([]Result, 0, outcomes.Rows*outcomes.Cols*len(e.config.Horizons))
	for n := 0; n < outcomes.Cols; n++ {
		series := outcomes.Column(n)
		for t := range series {
			for _, h := range e.config.Horizons {
				forward := series[t+1 : min(len(series), t+1+h)]
				if len(forward) < h {
					results = append(results, Result{
						Entity:     n,
						Step:       t,
						Horizon:    h,
						FwdResults: len(forward),
					})
					continue
				}
				results = append(results, calculateStats(n, t, h, forward))
			}
		}
	}

	return results, nil
}

// Labels returns the forward mean for one horizon as a feature-aligned
// row: index n*T+t, NaN where the horizon runs past the data
func Labels(results []Result, horizon, steps, entities int) []float64 {
	labels := make([]float64, steps*entities)
	for i := range labels {
		labels[i] = math.NaN()
	}
	for _, r := range results {
		if r.Horizon == horizon && r.FwdResults >= horizon {
			labels[r.Entity*steps+r.Step] = r.FwdMean
		}
	}
	return labels
}

// calculateStats computes statistics for a complete forward slice
func calculateStats(entity, step, horizon int, forward []float64) Result {
	sorted := make([]float64, len(forward))
	copy(sorted, forward)
	sort.Float64s(sorted)

	return Result{
		Entity:     entity,
		Step:       step,
		Horizon:    horizon,
		FwdMean:    mean(forward),
		FwdP10:     percentile(sorted, 10),
		FwdP50:     percentile(sorted, 50),
		FwdP90:     percentile(sorted, 90),
		FwdResults: len(forward),
	}
}

// mean calculates the arithmetic mean
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile calculates the p-th percentile (p in 0-100)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Linear interpolation method
	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}

// AggregateResults aggregates complete outcomes into per-horizon summaries
func AggregateResults(results []Result) map[int]AggregatedOutcome {
	byHorizon := make(map[int][]Result)
	for _, r := range results {
		if r.FwdResults < r.Horizon {
			continue
		}
		byHorizon[r.Horizon] = append(byHorizon[r.Horizon], r)
	}

	aggregated := make(map[int]AggregatedOutcome)
	for horizon, horizonResults := range byHorizon {
		means := make([]float64, len(horizonResults))
		p10s := make([]float64, len(horizonResults))
		p50s := make([]float64, len(horizonResults))
		p90s := make([]float64, len(horizonResults))

		for i, r := range horizonResults {
			means[i] = r.FwdMean
			p10s[i] = r.FwdP10
			p50s[i] = r.FwdP50
			p90s[i] = r.FwdP90
		}

		aggregated[horizon] = AggregatedOutcome{
			Horizon:     horizon,
			SampleCount: len(horizonResults),
			MeanOutcome: mean(means),
			MeanP10:     mean(p10s),
			MeanP50:     mean(p50s),
			MeanP90:     mean(p90s),
		}
	}

	return aggregated
}

// AggregatedOutcome represents aggregated statistics across entity-timesteps
type AggregatedOutcome struct {
	Horizon     int
	SampleCount int
	MeanOutcome float64
	MeanP10     float64
	MeanP50     float64
	MeanP90     float64
}

// String returns a formatted string representation
func (a AggregatedOutcome) String() string {
	return fmt.Sprintf(
		"Horizon: %d games | Samples: %d | Mean: %.4f | P10: %.4f | P50: %.4f | P90: %.4f",
		a.Horizon, a.SampleCount, a.MeanOutcome, a.MeanP10, a.MeanP50, a.MeanP90,
	)
}
