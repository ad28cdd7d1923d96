package feature

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/tunogya/rally/pkg/model"
	"github.com/tunogya/rally/pkg/stats"
)

// Assembler turns an Outcome Matrix into a Feature Matrix
type Assembler struct {
	cfg Config
}

// NewAssembler creates a new assembler. Zero TrendHalfWidth falls back to
// DefaultTrendHalfWidth; Init is used verbatim.
func NewAssembler(cfg Config) *Assembler {
	if cfg.TrendHalfWidth <= 0 {
		cfg.TrendHalfWidth = DefaultTrendHalfWidth
	}
	return &Assembler{cfg: cfg}
}

// Config returns the assembler configuration
func (a *Assembler) Config() Config {
	return a.cfg
}

// Assemble builds features with DefaultConfig's init and trend half-width
func Assemble(outcomes model.Matrix, windows []int, alphas []float64) (*model.FeatureMatrix, error) {
	cfg := DefaultConfig()
	cfg.Windows = windows
	cfg.Alphas = alphas
	return NewAssembler(cfg).Assemble(context.Background(), outcomes)
}

// Assemble computes the [2 + 2|windows| + 2|alphas|, T*N] feature matrix.
//
// Row layout:
//
//	0                      log(1+t)
//	1                      raw outcome
//	2 .. 1+W               rolling mean per window
//	2+W .. 1+2W            rolling std per window
//	2+2W .. 1+2W+A         step mean per alpha
//	2+2W+A .. 1+2W+2A      rolling std (TrendHalfWidth) of each step mean
//
// Columns are entity-major: column n*T+t holds entity n at step t.
// Window and alpha blocks run concurrently, each writing its own rows.
func (a *Assembler) Assemble(ctx context.Context, outcomes model.Matrix) (*model.FeatureMatrix, error) {
	steps, entities := outcomes.Shape()
	if steps == 0 {
		return nil, stats.ErrEmptySeries
	}

	nw, na := len(a.cfg.Windows), len(a.cfg.Alphas)
	out := &model.FeatureMatrix{
		Matrix:   model.NewMatrix(a.cfg.Rows(), steps*entities),
		Names:    model.FeatureNames(a.cfg.Windows, a.cfg.Alphas),
		Steps:    steps,
		Entities: entities,
	}

	for _, alpha := range a.cfg.Alphas {
		if err := stats.ValidateAlpha(alpha); err != nil {
			out.Advisories = append(out.Advisories, err)
		}
	}

	seq := model.NewMatrix(steps, entities)
	for t := 0; t < steps; t++ {
		v := math.Log(1 + float64(t))
		for n := 0; n < entities; n++ {
			seq.Set(t, n, v)
		}
	}
	if err := placeRow(out, model.RowSeqIndex, seq); err != nil {
		return nil, err
	}
	if err := placeRow(out, model.RowOutcome, outcomes); err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	if a.cfg.Parallelism > 0 {
		g.SetLimit(a.cfg.Parallelism)
	}

	for i, w := range a.cfg.Windows {
		w := w
		meanRow := model.FixedRows + i
		stdRow := model.FixedRows + nw + i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mean, err := stats.RollMean(outcomes, w)
			if err != nil {
				return fmt.Errorf("rolling mean w=%d: %w", w, err)
			}
			std, err := stats.RollStd(outcomes, w)
			if err != nil {
				return fmt.Errorf("rolling std w=%d: %w", w, err)
			}
			if err := placeRow(out, meanRow, mean); err != nil {
				return err
			}
			return placeRow(out, stdRow, std)
		})
	}

	for i, alpha := range a.cfg.Alphas {
		alpha := alpha
		meanRow := model.FixedRows + 2*nw + i
		stdRow := model.FixedRows + 2*nw + na + i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mean, err := stats.StepMean(outcomes, alpha, a.cfg.Init)
			if err != nil {
				return fmt.Errorf("step mean alpha=%v: %w", alpha, err)
			}
			std, err := stats.RollStd(mean, a.cfg.TrendHalfWidth)
			if err != nil {
				return fmt.Errorf("step std alpha=%v: %w", alpha, err)
			}
			if err := placeRow(out, meanRow, mean); err != nil {
				return err
			}
			return placeRow(out, stdRow, std)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// placeRow writes a [T, N] block into one feature row, entity-major
func placeRow(out *model.FeatureMatrix, row int, block model.Matrix) error {
	if row < 0 || row >= out.Rows || block.Rows != out.Steps || block.Cols != out.Entities ||
		block.Rows*block.Cols != out.Cols {
		return fmt.Errorf("row %d block [%d, %d] into [%d, %d]: %w",
			row, block.Rows, block.Cols, out.Rows, out.Cols, ErrShapeMismatch)
	}

	dst := out.Data[row*out.Cols : (row+1)*out.Cols]
	for n := 0; n < block.Cols; n++ {
		for t := 0; t < block.Rows; t++ {
			dst[n*block.Rows+t] = block.Data[t*block.Cols+n]
		}
	}
	return nil
}
