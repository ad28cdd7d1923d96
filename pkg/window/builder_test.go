package window_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/rally/pkg/model"
	"github.com/tunogya/rally/pkg/window"
)

func result(entity string, game int, outcome float64) model.Result {
	return model.Result{
		Series:   "rlcs",
		GameID:   fmt.Sprintf("g%03d", game),
		Entity:   entity,
		Outcome:  outcome,
		PlayedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(game) * time.Hour),
	}
}

func TestRingBuffer(t *testing.T) {
	rb := window.NewRingBuffer(3)
	_, ok := rb.Last()
	assert.False(t, ok)

	for _, v := range []float64{1, 2, 3, 4} {
		rb.Push(v)
	}
	assert.True(t, rb.IsFull())
	assert.Equal(t, []float64{2, 3, 4}, rb.ToSlice())

	last, ok := rb.Last()
	require.True(t, ok)
	assert.Equal(t, 4.0, last)

	rb.Clear()
	assert.Equal(t, 0, rb.Size())
	assert.Empty(t, rb.ToSlice())
}

func TestBuilder_Snapshot(t *testing.T) {
	b := window.NewBuilder(window.Config{T: 3})

	results := []model.Result{
		result("orange", 1, 0), result("blue", 1, 1),
		result("blue", 2, 0.5), result("orange", 2, 0.5),
		result("blue", 3, 0), result("orange", 3, 1),
		result("green", 3, 1),
		result("blue", 4, 1),
	}
	require.NoError(t, b.ProcessResults(results))

	m, names, latest := b.Snapshot()
	assert.Equal(t, []string{"blue", "orange"}, names)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 2, m.Cols)

	// blue keeps its last three games; orange has exactly three
	assert.Equal(t, []float64{0.5, 0, 1}, m.Column(0))
	assert.Equal(t, []float64{0, 0.5, 1}, m.Column(1))
	assert.Equal(t, results[7].PlayedAt, latest[0])

	assert.Equal(t, []string{"green"}, b.Pending())
	assert.Equal(t, 4, b.Games("blue"))

	timeline := b.Timeline(append(names, "nobody"))
	require.Len(t, timeline, 3)
	assert.Equal(t, []time.Time{results[2].PlayedAt, results[4].PlayedAt, results[7].PlayedAt}, timeline[0])
	assert.Nil(t, timeline[2])
}

func TestBuilder_Duplicate(t *testing.T) {
	b := window.NewBuilder(window.Config{T: 2})
	require.NoError(t, b.Push(result("blue", 1, 1)))

	err := b.Push(result("blue", 1, 0))
	assert.ErrorIs(t, err, window.ErrDuplicateResult)
}

func TestBuilder_SeriesFilter(t *testing.T) {
	b := window.NewBuilder(window.Config{T: 1, Series: "other"})
	require.NoError(t, b.Push(result("blue", 1, 1)))

	m, names, _ := b.Snapshot()
	assert.Empty(t, names)
	assert.Equal(t, 0, m.Cols)

	b.Reset()
	assert.Equal(t, 0, b.Games("blue"))
}
