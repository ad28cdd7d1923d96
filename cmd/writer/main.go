package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tunogya/rally/pkg/config"
	"github.com/tunogya/rally/pkg/logging"
	"github.com/tunogya/rally/pkg/queue/nats"
	"github.com/tunogya/rally/pkg/store/duckdb"
	"github.com/tunogya/rally/pkg/store/milvus"
)

// Prometheus metrics
var (
	resultsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rally_results_written_total",
		Help: "Total number of results persisted from the queue",
	})

	featureRunsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rally_feature_runs_written_total",
		Help: "Total number of feature runs persisted from the queue",
	})

	statesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rally_states_written_total",
		Help: "Total number of entity-state vectors written to Milvus",
	})

	messagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rally_messages_failed_total",
		Help: "Total number of queue messages that failed processing",
	}, []string{"subject"})

	writeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rally_write_duration_seconds",
		Help:    "Duration of batch writes per subject",
		Buckets: prometheus.DefBuckets,
	}, []string{"subject"})
)

// Config holds writer worker configuration
type Config struct {
	NATSUrl     string
	Stream      string
	DuckDBPath  string
	MilvusAddr  string
	SkipMilvus  bool
	MetricsAddr string
	BatchSize   int
}

type writer struct {
	results  *duckdb.ResultRepo
	features *duckdb.FeatureRepo
	milvus   *milvus.Client // nil when states are not indexed
	batch    int
	logger   *zap.SugaredLogger
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

	logger.Infow("starting writer worker",
		"nats", cfg.NATSUrl,
		"duckdb", cfg.DuckDBPath,
		"metrics", cfg.MetricsAddr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize DuckDB
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		logger.Fatalw("failed to connect to DuckDB", "error", err)
	}
	defer duckClient.Close()

	if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
		logger.Fatalw("failed to initialize schema", "error", err)
	}

	w := &writer{
		results:  duckdb.NewResultRepo(duckClient),
		features: duckdb.NewFeatureRepo(duckClient),
		batch:    cfg.BatchSize,
		logger:   logger,
	}

	// Initialize Milvus
	if !cfg.SkipMilvus {
		milvusClient, err := milvus.NewClient(ctx, milvus.Config{
			Address:  cfg.MilvusAddr,
			Username: env.MilvusUser,
			Password: env.MilvusPassword,
		})
		if err != nil {
			logger.Fatalw("failed to connect to Milvus", "error", err)
		}
		defer milvusClient.Close()
		w.milvus = milvusClient
	}

	// Initialize NATS
	natsCfg := nats.DefaultConfig()
	natsCfg.URL = cfg.NATSUrl
	natsCfg.StreamName = cfg.Stream
	natsClient, err := nats.NewClient(natsCfg)
	if err != nil {
		logger.Fatalw("failed to connect to NATS", "error", err)
	}
	defer natsClient.Close()

	if err := natsClient.CreateStream(ctx); err != nil {
		logger.Fatalw("failed to create stream", "error", err)
	}

	resultConsumer, err := natsClient.Subscribe(ctx, nats.SubjectResultWrite, "result-writer", w.instrument(nats.SubjectResultWrite, w.handleResults))
	if err != nil {
		logger.Fatalw("failed to subscribe to result writes", "error", err)
	}
	defer resultConsumer.Stop()

	featureConsumer, err := natsClient.Subscribe(ctx, nats.SubjectFeatureWrite, "feature-writer", w.instrument(nats.SubjectFeatureWrite, w.handleFeatures))
	if err != nil {
		logger.Fatalw("failed to subscribe to feature writes", "error", err)
	}
	defer featureConsumer.Stop()

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           newRouter(natsClient.IsConnected, duckClient.DB().PingContext),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Infow("writer worker started, waiting for messages")
	if err := g.Wait(); err != nil {
		logger.Errorw("writer stopped with error", "error", err)
	}
	logger.Infow("shutting down writer worker")
}

// instrument records duration and failures of a handler under its subject
func (w *writer) instrument(subject string, handler nats.MessageHandler) nats.MessageHandler {
	return func(msg jetstream.Msg) error {
		timer := prometheus.NewTimer(writeDuration.WithLabelValues(subject))
		defer timer.ObserveDuration()

		if err := handler(msg); err != nil {
			messagesFailed.WithLabelValues(subject).Inc()
			w.logger.Errorw("failed to process message", "subject", subject, "error", err)
			return err
		}
		return nil
	}
}

func (w *writer) handleResults(msg jetstream.Msg) error {
	batch, err := nats.DecodeResultBatch(msg.Data())
	if err != nil {
		return fmt.Errorf("failed to decode result batch: %w", err)
	}
	if len(batch.Results) == 0 {
		return nil
	}

	ctx := context.Background()
	if err := w.results.InsertBatch(ctx, batch.Results); err != nil {
		return err
	}

	resultsWritten.Add(float64(len(batch.Results)))
	w.logger.Infow("inserted results", "count", len(batch.Results))
	return nil
}

func (w *writer) handleFeatures(msg jetstream.Msg) error {
	batch, err := nats.DecodeFeatureBatch(msg.Data())
	if err != nil {
		return fmt.Errorf("failed to decode feature batch: %w", err)
	}

	ctx := context.Background()
	if err := w.features.InsertRun(ctx, batch.Run, batch.Features); err != nil {
		return err
	}
	featureRunsWritten.Inc()

	if w.milvus != nil {
		if err := w.indexStates(ctx, batch); err != nil {
			return err
		}
	}

	w.logger.Infow("inserted feature run",
		"run_id", batch.Run.RunID,
		"series", batch.Run.Series,
		"columns", batch.Features.Cols,
	)
	return nil
}

func (w *writer) indexStates(ctx context.Context, batch *nats.FeatureBatchMsg) error {
	collectionCfg := milvus.DefaultCollectionConfig()
	collectionCfg.Dimension = batch.Features.Rows
	if err := w.milvus.CreateCollection(ctx, collectionCfg); err != nil {
		return err
	}

	states := milvus.StatesFromFeatures(batch.Run, batch.Features, batch.Timeline())
	for i := 0; i < len(states); i += w.batch {
		end := min(i+w.batch, len(states))
		if err := w.milvus.InsertBatch(ctx, collectionCfg.Name, states[i:end]); err != nil {
			return err
		}
	}
	if err := w.milvus.Finalize(ctx, collectionCfg.Name); err != nil {
		w.logger.Warnw("failed to finalize collection", "error", err)
	}

	statesWritten.Add(float64(len(states)))
	return nil
}

// newRouter serves /metrics and a /healthz that checks the queue connection
// and the store
func newRouter(queueUp func() bool, pingStore func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !queueUp() {
			http.Error(w, "nats disconnected", http.StatusServiceUnavailable)
			return
		}
		if err := pingStore(req.Context()); err != nil {
			http.Error(w, "duckdb unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

func parseFlags(env *config.Config) Config {
	cfg := Config{}

	flag.StringVar(&cfg.NATSUrl, "nats", env.NATSURL, "NATS server URL")
	flag.StringVar(&cfg.Stream, "stream", env.NATSStream, "JetStream stream name")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", env.DuckDBPath, "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", env.MilvusAddr, "Milvus server address")
	flag.BoolVar(&cfg.SkipMilvus, "skip-milvus", false, "Do not index entity states in Milvus")
	flag.StringVar(&cfg.MetricsAddr, "metrics", env.MetricsAddr, "Listen address for /metrics and /healthz")
	flag.IntVar(&cfg.BatchSize, "batch", env.BatchSize, "Milvus insert batch size")

	flag.Parse()

	if cfg.DuckDBPath == "" || cfg.BatchSize < 1 {
		fmt.Println("Usage: writer [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
