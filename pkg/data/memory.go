package data

import (
	"context"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

// MemoryProvider implements ResultProvider with in-memory storage
type MemoryProvider struct {
	results []model.Result
}

// NewMemoryProvider creates a new in-memory result provider
func NewMemoryProvider(results []model.Result) *MemoryProvider {
	return &MemoryProvider{results: results}
}

// AddResults adds results to the provider
func (p *MemoryProvider) AddResults(results []model.Result) {
	p.results = append(p.results, results...)
}

// FetchResults retrieves results within the specified time range
func (p *MemoryProvider) FetchResults(ctx context.Context, series string, start, end time.Time) ([]model.Result, error) {
	return filterResults(p.results, series, start, end), nil
}

func filterResults(all []model.Result, series string, start, end time.Time) []model.Result {
	var result []model.Result
	for _, r := range all {
		if r.PlayedAt.Before(start) || r.PlayedAt.After(end) {
			continue
		}
		if series != "" && r.Series != series {
			continue
		}
		result = append(result, r)
	}
	sortResults(result)
	return result
}
