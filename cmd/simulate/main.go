package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/tunogya/rally/pkg/bounds"
	"github.com/tunogya/rally/pkg/config"
	"github.com/tunogya/rally/pkg/data"
	"github.com/tunogya/rally/pkg/logging"
	"github.com/tunogya/rally/pkg/model"
	"github.com/tunogya/rally/pkg/walk"
)

// Config holds simulation configuration
type Config struct {
	Output    string
	Series    string
	Entities  int
	Games     int
	Initial   float64
	Drift     float64
	Std       float64
	StdMax    float64
	Seed      int64
	Bernoulli bool
	Start     string
	Interval  time.Duration
}

func main() {
	env, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}
	cfg := parseFlags()

	logger := logging.Must(env.Env)
	defer logger.Sync()

	params := walk.DefaultParams()
	params.Initial = cfg.Initial
	params.Steps = cfg.Games
	params.Paths = cfg.Entities
	params.Drift = cfg.Drift
	params.Std = cfg.Std
	params.StdBounds = bounds.Bounds{Lo: 0, Hi: cfg.StdMax}

	rng := rand.New(rand.NewSource(cfg.Seed))
	paths, err := walk.Synthesize(rng, params)
	if err != nil {
		logger.Fatalw("failed to synthesize walks", "error", err)
	}

	start, err := time.Parse(time.DateOnly, cfg.Start)
	if err != nil {
		logger.Fatalw("invalid -start", "error", err)
	}
	results := toResults(paths, cfg.Series, start, cfg.Interval, rng, cfg.Bernoulli)

	var out io.Writer = os.Stdout
	if cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			logger.Fatalw("failed to create output", "path", cfg.Output, "error", err)
		}
		defer f.Close()
		out = f
	}

	if err := data.WriteCSV(out, results); err != nil {
		logger.Fatalw("failed to write results", "error", err)
	}

	logger.Infow("simulation written",
		"output", cfg.Output,
		"entities", cfg.Entities,
		"games", cfg.Games,
		"results", len(results),
		"seed", cfg.Seed,
	)
}

// toResults turns column n of paths into the history of entity sim-n.
// With bernoulli set each value is the win probability of a drawn 0/1 outcome.
func toResults(paths model.Matrix, series string, start time.Time, interval time.Duration, rng *rand.Rand, bernoulli bool) []model.Result {
	results := make([]model.Result, 0, paths.Rows*paths.Cols)
	for t := 0; t < paths.Rows; t++ {
		gameID := fmt.Sprintf("sim-%06d", t)
		playedAt := start.Add(time.Duration(t) * interval)
		for n := 0; n < paths.Cols; n++ {
			v := paths.At(t, n)
			if bernoulli {
				if rng.Float64() < v {
					v = 1
				} else {
					v = 0
				}
			}
			results = append(results, model.Result{
				Series:   series,
				GameID:   gameID,
				Entity:   fmt.Sprintf("sim-%03d", n),
				Outcome:  v,
				PlayedAt: playedAt,
			})
		}
	}
	return results
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Output, "out", "-", "Output CSV path (- for stdout)")
	flag.StringVar(&cfg.Series, "series", "sim", "Series name written on every result")
	flag.IntVar(&cfg.Entities, "entities", 8, "Number of simulated entities (walk paths)")
	flag.IntVar(&cfg.Games, "games", 1000, "Results per entity (walk steps)")
	flag.Float64Var(&cfg.Initial, "initial", 0.5, "Starting value of every walk")
	flag.Float64Var(&cfg.Drift, "drift", 0, "Per-step drift")
	flag.Float64Var(&cfg.Std, "std", 0.001, "Step standard deviation")
	flag.Float64Var(&cfg.StdMax, "std-max", 0.05, "Upper bound of the step standard deviation")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.BoolVar(&cfg.Bernoulli, "bernoulli", false, "Draw 0/1 outcomes using the walk as win probability")
	flag.StringVar(&cfg.Start, "start", "2024-01-01", "Date of the first simulated game")
	flag.DurationVar(&cfg.Interval, "interval", time.Hour, "Time between simulated games")

	flag.Parse()

	if cfg.Entities < 1 || cfg.Games < 1 {
		fmt.Println("Usage: simulate [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
