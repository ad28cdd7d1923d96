package rerank

import (
	"math"
	"sort"
	"time"

	"github.com/tunogya/rally/pkg/store/milvus"
)

// TimeDecayConfig holds configuration for time decay reranking
type TimeDecayConfig struct {
	Lambda float64 // Exponential decay rate per day (higher = faster decay)

	// Segment weights, used instead of Lambda when UseSegments is true
	UseSegments  bool
	RecentDays   float64
	MediumDays   float64
	RecentWeight float64
	MediumWeight float64
	OldWeight    float64
}

// DefaultTimeDecayConfig returns a configuration with a one-season half-life
func DefaultTimeDecayConfig() TimeDecayConfig {
	return TimeDecayConfig{
		Lambda:       math.Ln2 / 180,
		RecentDays:   30,
		MediumDays:   365,
		RecentWeight: 1.0,
		MediumWeight: 0.7,
		OldWeight:    0.4,
	}
}

// SegmentConfig returns a configuration using segment-based weights
func SegmentConfig() TimeDecayConfig {
	cfg := DefaultTimeDecayConfig()
	cfg.UseSegments = true
	return cfg
}

// RankedResult extends SearchResult with reranked score
type RankedResult struct {
	milvus.SearchResult
	Similarity float64 // 1 / (1 + L2 distance)
	TimeWeight float64
	FinalScore float64
}

// Reranker performs time-based reranking of similar-state hits
type Reranker struct {
	config TimeDecayConfig
}

// NewReranker creates a new reranker with the given configuration
func NewReranker(config TimeDecayConfig) *Reranker {
	return &Reranker{config: config}
}

// Rerank orders hits by similarity weighted by the age of the state.
// Hits without a timestamp get the oldest weight.
func (r *Reranker) Rerank(results []milvus.SearchResult, now time.Time) []RankedResult {
	ranked := make([]RankedResult, len(results))

	for i, result := range results {
		weight := r.weight(result.PlayedAt, now)
		similarity := 1 / (1 + math.Max(0, float64(result.Score)))

		ranked[i] = RankedResult{
			SearchResult: result,
			Similarity:   similarity,
			TimeWeight:   weight,
			FinalScore:   similarity * weight,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked
}

func (r *Reranker) weight(playedAt, now time.Time) float64 {
	if playedAt.IsZero() {
		if r.config.UseSegments {
			return r.config.OldWeight
		}
		return 0
	}

	ageDays := math.Max(0, now.Sub(playedAt).Hours()/24)
	if r.config.UseSegments {
		return r.segmentWeight(ageDays)
	}
	return math.Exp(-r.config.Lambda * ageDays)
}

// segmentWeight returns weight based on time segments
func (r *Reranker) segmentWeight(ageDays float64) float64 {
	switch {
	case ageDays <= r.config.RecentDays:
		return r.config.RecentWeight
	case ageDays <= r.config.MediumDays:
		return r.config.MediumWeight
	default:
		return r.config.OldWeight
	}
}

// TopN returns the top N results after reranking
func (r *Reranker) TopN(results []milvus.SearchResult, now time.Time, n int) []RankedResult {
	ranked := r.Rerank(results, now)
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

// ExcludeEntity drops hits belonging to one entity, typically the query's own history
func ExcludeEntity(results []RankedResult, entity string) []RankedResult {
	var filtered []RankedResult
	for _, r := range results {
		if r.Entity != entity {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterByMinScore filters results by minimum final score
func FilterByMinScore(results []RankedResult, minScore float64) []RankedResult {
	var filtered []RankedResult
	for _, r := range results {
		if r.FinalScore >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
