// Package window aligns a chronological stream of per-entity results into an
// Outcome Matrix: each entity keeps its last T outcomes in a ring buffer, and a
// snapshot stacks the full buffers side by side as a [T, N] matrix.
package window

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

// ErrDuplicateResult is returned when an entity reports twice for the same game
var ErrDuplicateResult = errors.New("window: entity already has a result for this game")

// Config holds configuration for the history builder
type Config struct {
	T      int    // history length per entity (rows of the Outcome Matrix)
	Series string // optional series filter; empty accepts everything
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{T: 100}
}

type history struct {
	buf      *RingBuffer
	times    *RingBuffer // unix seconds, parallel to buf
	lastGame string
	lastAt   time.Time
	games    int
}

// Builder keeps the most recent T outcomes of every entity it has seen
type Builder struct {
	T      int
	Series string

	entities map[string]*history
}

// NewBuilder creates a new history builder with the given configuration
func NewBuilder(cfg Config) *Builder {
	t := cfg.T
	if t <= 0 {
		t = DefaultConfig().T
	}
	return &Builder{
		T:        t,
		Series:   cfg.Series,
		entities: make(map[string]*history),
	}
}

// Push appends one result to its entity's history.
// Results must arrive in chronological order per entity.
func (b *Builder) Push(r model.Result) error {
	if b.Series != "" && r.Series != b.Series {
		return nil
	}

	h, ok := b.entities[r.Entity]
	if !ok {
		h = &history{buf: NewRingBuffer(b.T), times: NewRingBuffer(b.T)}
		b.entities[r.Entity] = h
	}
	if h.games > 0 && h.lastGame == r.GameID {
		return fmt.Errorf("entity %s game %s: %w", r.Entity, r.GameID, ErrDuplicateResult)
	}

	h.buf.Push(r.Outcome)
	h.times.Push(float64(r.PlayedAt.Unix()))
	h.lastGame = r.GameID
	h.lastAt = r.PlayedAt
	h.games++
	return nil
}

// ProcessResults sorts a batch chronologically and pushes every result
func (b *Builder) ProcessResults(results []model.Result) error {
	sorted := make([]model.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return model.ResultLess(&sorted[i], &sorted[j])
	})

	for _, r := range sorted {
		if err := b.Push(r); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the Outcome Matrix of every entity with a full history,
// columns ordered by entity name, plus the entity names and the time of each
// entity's latest result
func (b *Builder) Snapshot() (model.Matrix, []string, []time.Time) {
	var names []string
	for name, h := range b.entities {
		if h.buf.IsFull() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	m := model.NewMatrix(b.T, len(names))
	latest := make([]time.Time, len(names))
	for n, name := range names {
		h := b.entities[name]
		for t, v := range h.buf.ToSlice() {
			m.Set(t, n, v)
		}
		latest[n] = h.lastAt
	}

	return m, names, latest
}

// Timeline returns, for each named entity, the play times of the results
// currently held in its history, oldest first. Unknown entities get nil.
func (b *Builder) Timeline(entities []string) [][]time.Time {
	out := make([][]time.Time, len(entities))
	for n, name := range entities {
		h, ok := b.entities[name]
		if !ok {
			continue
		}
		secs := h.times.ToSlice()
		out[n] = make([]time.Time, len(secs))
		for t, s := range secs {
			out[n][t] = time.Unix(int64(s), 0).UTC()
		}
	}
	return out
}

// Pending returns the entities seen so far whose history is still shorter than T
func (b *Builder) Pending() []string {
	var names []string
	for name, h := range b.entities {
		if !h.buf.IsFull() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Games returns how many results the entity has pushed in total
func (b *Builder) Games(entity string) int {
	if h, ok := b.entities[entity]; ok {
		return h.games
	}
	return 0
}

// Reset clears the builder state
func (b *Builder) Reset() {
	b.entities = make(map[string]*history)
}
