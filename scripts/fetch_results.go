package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tunogya/rally/pkg/data"
	"github.com/tunogya/rally/pkg/logging"
)

func main() {
	baseURL := flag.String("api", "https://zsr.octane.gg", "Results API root")
	series := flag.String("series", "rlcs", "Series label written on every result")
	after := flag.String("after", "", "Only games played on or after this day (YYYY-MM-DD)")
	perPage := flag.Int("per-page", 500, "Games requested per page")
	output := flag.String("output", "", "Output CSV file path")
	flag.Parse()

	log := logging.Must(os.Getenv("RALLY_ENV"))
	defer log.Sync()

	if *output == "" {
		*output = fmt.Sprintf("data/%s_results.csv", *series)
	}

	var start time.Time
	if *after != "" {
		var err error
		if start, err = time.Parse(time.DateOnly, *after); err != nil {
			log.Fatalw("invalid -after", "error", err)
		}
	}

	cfg := data.DefaultFetchConfig(*baseURL)
	cfg.PerPage = *perPage
	provider := data.NewAPIProvider(cfg, func(p data.FetchProgress) {
		log.Infow("fetched page", "page", p.Page, "results", p.Results)
	})

	log.Infow("fetching games", "api", *baseURL)
	results, err := provider.FetchResults(context.Background(), *series, start, time.Time{})
	if err != nil {
		log.Fatalw("failed to fetch results", "error", err)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalw("failed to create output directory", "error", err)
	}
	file, err := os.Create(*output)
	if err != nil {
		log.Fatalw("failed to create file", "error", err)
	}
	defer file.Close()

	if err := data.WriteCSV(file, results); err != nil {
		log.Fatalw("failed to write CSV", "error", err)
	}

	log.Infow("saved results", "count", len(results), "output", *output)
}
