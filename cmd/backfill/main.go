package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tunogya/rally/pkg/config"
	"github.com/tunogya/rally/pkg/data"
	"github.com/tunogya/rally/pkg/feature"
	"github.com/tunogya/rally/pkg/logging"
	"github.com/tunogya/rally/pkg/model"
	"github.com/tunogya/rally/pkg/outcome"
	"github.com/tunogya/rally/pkg/queue/nats"
	"github.com/tunogya/rally/pkg/store/duckdb"
	"github.com/tunogya/rally/pkg/store/milvus"
	"github.com/tunogya/rally/pkg/store/postgres"
	"github.com/tunogya/rally/pkg/window"
)

// Config holds backfill configuration
type Config struct {
	// Data source
	Source  string // csv, api or postgres
	CSVPath string
	Series  string
	Start   string
	End     string

	// History and features
	HistoryLength int
	Windows       string
	Alphas        string
	Horizons      string

	// Storage
	DuckDBPath string
	MilvusAddr string
	SkipMilvus bool
	Publish    bool

	// Processing
	BatchSize int
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

	logger.Infow("starting backfill",
		"source", cfg.Source,
		"series", cfg.Series,
		"history", cfg.HistoryLength,
	)

	if err := run(context.Background(), cfg, env, logger); err != nil {
		logger.Fatalw("backfill failed", "error", err)
	}
}

func run(ctx context.Context, cfg Config, env *config.Config, logger *zap.SugaredLogger) error {
	fc := env.FeatureConfig()
	var err error
	if fc.Windows, err = config.ParseInts(cfg.Windows); err != nil {
		return err
	}
	if fc.Alphas, err = config.ParseFloats(cfg.Alphas); err != nil {
		return err
	}
	horizons, err := config.ParseInts(cfg.Horizons)
	if err != nil {
		return err
	}
	start, end, err := parseRange(cfg.Start, cfg.End)
	if err != nil {
		return err
	}

	// Load results
	provider, closeProvider, err := newProvider(ctx, cfg, env, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	results, err := provider.FetchResults(ctx, cfg.Series, start, end)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	logger.Infow("loaded results", "count", len(results))
	if csvProvider, ok := provider.(*data.CSVProvider); ok && csvProvider.Skipped() > 0 {
		logger.Warnw("skipped malformed CSV records", "count", csvProvider.Skipped())
	}

	// Align histories
	builder := window.NewBuilder(window.Config{T: cfg.HistoryLength, Series: cfg.Series})
	if err := builder.ProcessResults(results); err != nil {
		return fmt.Errorf("failed to build histories: %w", err)
	}
	outcomes, entities, _ := builder.Snapshot()
	if pending := builder.Pending(); len(pending) > 0 {
		logger.Infow("entities with short history skipped", "count", len(pending), "required", cfg.HistoryLength)
	}
	if len(entities) == 0 {
		return fmt.Errorf("no entity has %d results in series %q", cfg.HistoryLength, cfg.Series)
	}
	playedAt := builder.Timeline(entities)

	// Assemble features
	started := time.Now()
	fm, err := feature.NewAssembler(fc).Assemble(ctx, outcomes)
	if err != nil {
		return fmt.Errorf("failed to assemble features: %w", err)
	}
	for _, adv := range fm.Advisories {
		logger.Warnw("feature advisory", "error", adv)
	}
	featureRun := model.NewFeatureRun(cfg.Series, entities, fc.Windows, fc.Alphas, fm)
	logger.Infow("assembled features",
		"run_id", featureRun.RunID,
		"rows", fm.Rows,
		"columns", fm.Cols,
		"entities", len(entities),
		"elapsed", time.Since(started),
	)

	logLabels(outcomes, horizons, logger)

	if cfg.Publish {
		return publish(ctx, env, cfg, results, featureRun, fm, playedAt, logger)
	}

	// Store in DuckDB
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		return err
	}
	defer duckClient.Close()

	if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
		return err
	}
	if err := duckdb.NewResultRepo(duckClient).InsertBatch(ctx, results); err != nil {
		return err
	}
	if err := duckdb.NewFeatureRepo(duckClient).InsertRun(ctx, featureRun, fm); err != nil {
		return err
	}
	logger.Infow("stored run in DuckDB", "path", cfg.DuckDBPath, "results", len(results))

	if cfg.SkipMilvus {
		return nil
	}
	return storeStates(ctx, cfg, env, featureRun, fm, playedAt, logger)
}

func newProvider(ctx context.Context, cfg Config, env *config.Config, logger *zap.SugaredLogger) (data.ResultProvider, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case "csv":
		if cfg.CSVPath == "" {
			return nil, noop, fmt.Errorf("-csv is required for the csv source")
		}
		return data.NewCSVProvider(cfg.CSVPath), noop, nil
	case "api":
		fetchCfg := data.DefaultFetchConfig(env.ResultsAPIURL)
		return data.NewAPIProvider(fetchCfg, func(p data.FetchProgress) {
			logger.Debugw("fetched page", "page", p.Page, "results", p.Results)
		}), noop, nil
	case "postgres":
		if env.PostgresURL == "" {
			return nil, noop, fmt.Errorf("POSTGRES_URL is required for the postgres source")
		}
		src, err := postgres.Connect(ctx, postgres.Config{URL: env.PostgresURL})
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func storeStates(ctx context.Context, cfg Config, env *config.Config, run *model.FeatureRun, fm *model.FeatureMatrix, playedAt [][]time.Time, logger *zap.SugaredLogger) error {
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{
		Address:  cfg.MilvusAddr,
		Username: env.MilvusUser,
		Password: env.MilvusPassword,
	})
	if err != nil {
		return err
	}
	defer milvusClient.Close()

	collectionCfg := milvus.DefaultCollectionConfig()
	collectionCfg.Dimension = fm.Rows
	if err := milvusClient.CreateCollection(ctx, collectionCfg); err != nil {
		return err
	}

	states := milvus.StatesFromFeatures(run, fm, playedAt)
	for i := 0; i < len(states); i += cfg.BatchSize {
		end := min(i+cfg.BatchSize, len(states))
		if err := milvusClient.InsertBatch(ctx, collectionCfg.Name, states[i:end]); err != nil {
			return err
		}
	}

	if err := milvusClient.Finalize(ctx, collectionCfg.Name); err != nil {
		logger.Warnw("failed to finalize collection", "error", err)
	}
	logger.Infow("stored states in Milvus", "collection", collectionCfg.Name, "vectors", len(states))
	return nil
}

func publish(ctx context.Context, env *config.Config, cfg Config, results []model.Result, run *model.FeatureRun, fm *model.FeatureMatrix, playedAt [][]time.Time, logger *zap.SugaredLogger) error {
	natsCfg := nats.DefaultConfig()
	natsCfg.URL = env.NATSURL
	natsCfg.StreamName = env.NATSStream

	client, err := nats.NewClient(natsCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateStream(ctx); err != nil {
		return err
	}

	for i := 0; i < len(results); i += cfg.BatchSize {
		end := min(i+cfg.BatchSize, len(results))
		if err := client.PublishJSON(ctx, nats.SubjectResultWrite, &nats.ResultBatchMsg{Results: results[i:end]}); err != nil {
			return err
		}
	}
	if err := client.PublishJSON(ctx, nats.SubjectFeatureWrite, nats.NewFeatureBatch(run, fm, playedAt)); err != nil {
		return err
	}

	logger.Infow("published run", "run_id", run.RunID, "results", len(results), "stream", natsCfg.StreamName)
	return nil
}

// logLabels prints forward-outcome summaries for the assembled histories
func logLabels(outcomes model.Matrix, horizons []int, logger *zap.SugaredLogger) {
	if len(horizons) == 0 {
		return
	}
	labels, err := outcome.NewEngine(outcome.Config{Horizons: horizons}).Calculate(outcomes)
	if err != nil {
		logger.Warnw("forward labels unavailable", "error", err)
		return
	}

	aggregated := outcome.AggregateResults(labels)
	keys := make([]int, 0, len(aggregated))
	for h := range aggregated {
		keys = append(keys, h)
	}
	sort.Ints(keys)
	for _, h := range keys {
		logger.Infow("forward outcome", "summary", aggregated[h].String())
	}
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	var err error
	if start != "" {
		if from, err = time.Parse(time.DateOnly, start); err != nil {
			return from, to, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if end != "" {
		if to, err = time.Parse(time.DateOnly, end); err != nil {
			return from, to, fmt.Errorf("invalid -end: %w", err)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

func parseFlags(env *config.Config) Config {
	cfg := Config{}

	flag.StringVar(&cfg.Source, "source", "csv", "Results source: csv, api or postgres")
	flag.StringVar(&cfg.CSVPath, "csv", "", "Path to CSV file with results (csv source)")
	flag.StringVar(&cfg.Series, "series", "", "Series to backfill (empty = all)")
	flag.StringVar(&cfg.Start, "start", "", "First day to include (YYYY-MM-DD)")
	flag.StringVar(&cfg.End, "end", "", "Last day to include (YYYY-MM-DD)")
	flag.IntVar(&cfg.HistoryLength, "history", env.HistoryLength, "Results per entity (rows of the outcome matrix)")
	flag.StringVar(&cfg.Windows, "windows", config.FormatInts(env.Windows), "Rolling half-widths")
	flag.StringVar(&cfg.Alphas, "alphas", config.FormatFloats(env.Alphas), "Step-mean smoothing factors")
	flag.StringVar(&cfg.Horizons, "horizons", config.FormatInts(outcome.DefaultConfig().Horizons), "Forward label horizons (empty = none)")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", env.DuckDBPath, "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", env.MilvusAddr, "Milvus server address")
	flag.BoolVar(&cfg.SkipMilvus, "skip-milvus", false, "Do not write entity states to Milvus")
	flag.BoolVar(&cfg.Publish, "publish", false, "Publish batches to NATS for the writer instead of storing directly")
	flag.IntVar(&cfg.BatchSize, "batch", env.BatchSize, "Batch size for inserts and messages")

	flag.Parse()

	if cfg.BatchSize < 1 || cfg.HistoryLength < 1 {
		fmt.Println("Usage: backfill -source <csv|api|postgres> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
