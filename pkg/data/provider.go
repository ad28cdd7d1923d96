package data

import (
	"context"
	"sort"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

// ResultProvider defines the interface for fetching historical game results
type ResultProvider interface {
	// FetchResults retrieves results of a series played within [start, end].
	// Returns results ordered by time (oldest first)
	FetchResults(ctx context.Context, series string, start, end time.Time) ([]model.Result, error)
}

// FetchConfig holds configuration for paginated fetch operations
type FetchConfig struct {
	BaseURL       string        // Results API root (e.g. "https://zsr.octane.gg")
	PerPage       int           // Page size requested from the API
	RetryAttempts int           // Number of retry attempts for failed requests
	RetryDelay    time.Duration // Delay between retry attempts
	Timeout       time.Duration // Per-request timeout
}

// DefaultFetchConfig returns a FetchConfig with sensible defaults
func DefaultFetchConfig(baseURL string) FetchConfig {
	return FetchConfig{
		BaseURL:       baseURL,
		PerPage:       100,
		RetryAttempts: 3,
		RetryDelay:    time.Second * 2,
		Timeout:       time.Second * 30,
	}
}

// FetchProgress tracks the progress of a paginated fetch
type FetchProgress struct {
	Page    int
	Results int
}

// ProgressCallback is called after every page
type ProgressCallback func(progress FetchProgress)

func sortResults(results []model.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return model.ResultLess(&results[i], &results[j])
	})
}
