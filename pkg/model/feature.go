package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Fixed feature rows that precede the window and alpha blocks
const (
	RowSeqIndex = 0
	RowOutcome  = 1

	// FixedRows is the number of rows that do not depend on configuration
	FixedRows = 2
)

// FeatureMatrix is the assembled model input. Rows are features in a fixed,
// position-addressable order; columns are entity-timesteps flattened
// entity-major (column = entity*Steps + step).
type FeatureMatrix struct {
	Matrix
	Names    []string `json:"names"`
	Steps    int      `json:"steps"`
	Entities int      `json:"entities"`

	// Advisories holds non-fatal validation findings (e.g. an alpha outside (0, 1)).
	// The matrix is fully computed regardless.
	Advisories []error `json:"-"`
}

// FeatureRowCount returns 2 + 2*windows + 2*alphas
func FeatureRowCount(windows, alphas int) int {
	return FixedRows + 2*windows + 2*alphas
}

// FeatureNames returns the row labels for the given configuration, in row order
func FeatureNames(windows []int, alphas []float64) []string {
	names := make([]string, 0, FeatureRowCount(len(windows), len(alphas)))
	names = append(names, "seq_index", "outcome")
	for _, w := range windows {
		names = append(names, fmt.Sprintf("roll_mean_w%d", w))
	}
	for _, w := range windows {
		names = append(names, fmt.Sprintf("roll_std_w%d", w))
	}
	for _, a := range alphas {
		names = append(names, "step_mean_a"+formatAlpha(a))
	}
	for _, a := range alphas {
		names = append(names, "step_std_a"+formatAlpha(a))
	}
	return names
}

func formatAlpha(a float64) string {
	return strconv.FormatFloat(a, 'g', -1, 64)
}

// ColumnIndex returns the index of the column holding (entity, step)
func (f *FeatureMatrix) ColumnIndex(entity, step int) int {
	return entity*f.Steps + step
}

// Vector returns the feature vector of one entity-timestep
func (f *FeatureMatrix) Vector(entity, step int) []float64 {
	return f.Matrix.Column(f.ColumnIndex(entity, step))
}

// Vector32 returns the feature vector of one entity-timestep as float32,
// the representation used for similarity search
func (f *FeatureMatrix) Vector32(entity, step int) []float32 {
	col := f.ColumnIndex(entity, step)
	result := make([]float32, f.Rows)
	for i := 0; i < f.Rows; i++ {
		result[i] = float32(f.At(i, col))
	}
	return result
}

// FeatureRun identifies one persisted assembly of a feature matrix
type FeatureRun struct {
	RunID     string    `json:"run_id"`
	Series    string    `json:"series"`
	Steps     int       `json:"steps"`
	Entities  []string  `json:"entities"`
	Rows      int       `json:"rows"`
	Windows   []int     `json:"windows"`
	Alphas    []float64 `json:"alphas"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeatureRun describes fm under a fresh run id
func NewFeatureRun(series string, entities []string, windows []int, alphas []float64, fm *FeatureMatrix) *FeatureRun {
	return &FeatureRun{
		RunID:     uuid.NewString(),
		Series:    series,
		Steps:     fm.Steps,
		Entities:  entities,
		Rows:      fm.Rows,
		Windows:   windows,
		Alphas:    alphas,
		CreatedAt: time.Now().UTC(),
	}
}

// StateID is the identifier of one entity-timestep inside a run
func StateID(runID, entity string, step int) string {
	return fmt.Sprintf("%s:%s:%d", runID, entity, step)
}
