package rerank

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/store/milvus"
)

func TestRerank_DecayOrdersEqualDistances(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	hits := []milvus.SearchResult{
		{StateID: "old", Entity: "a", Score: 0.5, PlayedAt: now.AddDate(-2, 0, 0)},
		{StateID: "new", Entity: "b", Score: 0.5, PlayedAt: now.AddDate(0, 0, -1)},
		{StateID: "undated", Entity: "c", Score: 0},
	}

	ranked := NewReranker(DefaultTimeDecayConfig()).Rerank(hits, now)
	require.Len(t, ranked, 3)
	assert.Equal(t, "new", ranked[0].StateID)
	assert.Equal(t, "old", ranked[1].StateID)
	assert.Equal(t, "undated", ranked[2].StateID)
	assert.InDelta(t, 1/1.5, ranked[0].Similarity, 1e-12)
	assert.InDelta(t, math.Exp(-math.Ln2/180), ranked[0].TimeWeight, 1e-12)
}

func TestRerank_Segments(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewReranker(SegmentConfig())

	assert.Equal(t, 1.0, r.weight(now.AddDate(0, 0, -3), now))
	assert.Equal(t, 0.7, r.weight(now.AddDate(0, -2, 0), now))
	assert.Equal(t, 0.4, r.weight(now.AddDate(-3, 0, 0), now))
	assert.Equal(t, 0.4, r.weight(time.Time{}, now))
}

func TestFilters(t *testing.T) {
	now := time.Now()
	hits := []milvus.SearchResult{
		{StateID: "1", Entity: "a", Score: 0, PlayedAt: now},
		{StateID: "2", Entity: "b", Score: 9, PlayedAt: now},
		{StateID: "3", Entity: "a", Score: 1, PlayedAt: now},
	}

	ranked := NewReranker(DefaultTimeDecayConfig()).TopN(hits, now, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "1", ranked[0].StateID)

	assert.Len(t, ExcludeEntity(ranked, "a"), 0)
	assert.Len(t, FilterByMinScore(ranked, 0.75), 1)
}
