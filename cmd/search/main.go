package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tunogya/rally/pkg/config"
	"github.com/tunogya/rally/pkg/logging"
	"github.com/tunogya/rally/pkg/rerank"
	"github.com/tunogya/rally/pkg/store/duckdb"
	"github.com/tunogya/rally/pkg/store/milvus"
)

type Config struct {
	Series string
	Entity string
	RunID  string
	Step   int

	DuckDBPath  string
	MilvusAddr  string
	TopK        int
	Show        int
	Segments    bool
	IncludeSelf bool
}

func main() {
	env, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}
	cfg := parseFlags(env)

	logger := logging.Must(env.Env)
	defer logger.Sync()

	ctx := context.Background()

	// Initialize DuckDB
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		logger.Fatalw("failed to connect to DuckDB", "error", err)
	}
	defer duckClient.Close()

	featureRepo := duckdb.NewFeatureRepo(duckClient)

	runID := cfg.RunID
	if runID == "" {
		if runID, err = featureRepo.LatestRun(ctx, cfg.Series); err != nil {
			logger.Fatalw("no feature run found", "series", cfg.Series, "error", err)
		}
	}
	run, err := featureRepo.GetRun(ctx, runID)
	if err != nil {
		logger.Fatalw("failed to load run", "run_id", runID, "error", err)
	}

	// Default to the entity's latest state
	step := cfg.Step
	if step < 0 {
		step = run.Steps - 1
	}
	vector, err := featureRepo.GetVector(ctx, run.RunID, cfg.Entity, step)
	if err != nil {
		logger.Fatalw("failed to load feature vector", "error", err)
	}
	if len(vector) != run.Rows {
		logger.Fatalw("entity state not found in run",
			"entity", cfg.Entity,
			"step", step,
			"run_id", run.RunID,
			"values", len(vector),
		)
	}
	logger.Infow("query state", "run_id", run.RunID, "entity", cfg.Entity, "step", step, "created_at", run.CreatedAt.Format(time.RFC3339))

	embedding := make([]float32, len(vector))
	for i, v := range vector {
		embedding[i] = float32(v)
	}

	// Initialize Milvus
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{
		Address:  cfg.MilvusAddr,
		Username: env.MilvusUser,
		Password: env.MilvusPassword,
	})
	if err != nil {
		logger.Fatalw("failed to connect to Milvus", "error", err)
	}
	defer milvusClient.Close()

	if err := milvusClient.LoadCollection(ctx, milvus.DefaultCollectionName); err != nil {
		logger.Fatalw("failed to load collection", "error", err)
	}

	results, err := milvusClient.Search(ctx, milvus.DefaultCollectionName, embedding, searchFilter(run.Series), cfg.TopK)
	if err != nil {
		logger.Fatalw("search failed", "error", err)
	}

	decay := rerank.DefaultTimeDecayConfig()
	if cfg.Segments {
		decay = rerank.SegmentConfig()
	}
	ranked := rerank.NewReranker(decay).Rerank(results, time.Now())
	if !cfg.IncludeSelf {
		ranked = rerank.ExcludeEntity(ranked, cfg.Entity)
	}
	if len(ranked) > cfg.Show {
		ranked = ranked[:cfg.Show]
	}

	fmt.Printf("%-5s %-24s %-6s %-12s %-10s %-10s %-10s\n", "Rank", "Entity", "Step", "Played", "Distance", "Weight", "Final")
	fmt.Println("--------------------------------------------------------------------------------")
	for i, r := range ranked {
		played := "-"
		if !r.PlayedAt.IsZero() {
			played = r.PlayedAt.Format(time.DateOnly)
		}
		fmt.Printf("%-5d %-24s %-6d %-12s %-10.4f %-10.4f %-10.4f\n",
			i+1, r.Entity, r.Step, played, r.Score, r.TimeWeight, r.FinalScore)
	}
}

func searchFilter(series string) string {
	if series == "" {
		return ""
	}
	return "series == " + strconv.Quote(series)
}

func parseFlags(env *config.Config) Config {
	cfg := Config{}

	flag.StringVar(&cfg.Series, "series", "", "Series whose latest run is queried")
	flag.StringVar(&cfg.Entity, "entity", "", "Entity whose state is the query")
	flag.StringVar(&cfg.RunID, "run", "", "Feature run ID (default: latest run of the series)")
	flag.IntVar(&cfg.Step, "step", -1, "Timestep of the query state (default: latest)")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", env.DuckDBPath, "DuckDB path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", env.MilvusAddr, "Milvus address")
	flag.IntVar(&cfg.TopK, "topk", 50, "Candidates fetched from Milvus")
	flag.IntVar(&cfg.Show, "show", 10, "Results printed after reranking")
	flag.BoolVar(&cfg.Segments, "segments", false, "Use segment weights instead of exponential decay")
	flag.BoolVar(&cfg.IncludeSelf, "include-self", false, "Keep hits from the query entity's own history")

	flag.Parse()

	if cfg.Entity == "" {
		fmt.Println("Usage: search -entity <name> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
