package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

// Subject constants
const (
	SubjectResultWrite  = "rally.results.write"
	SubjectFeatureWrite = "rally.features.write"
)

// ResultBatchMsg represents a batch result write request
type ResultBatchMsg struct {
	Results []model.Result `json:"results"`
}

// FeatureBatchMsg carries one assembled feature run.
// PlayedAt[n][t] is the time of entity n's t-th result and may be empty.
type FeatureBatchMsg struct {
	Run      *model.FeatureRun    `json:"run"`
	Features *model.FeatureMatrix `json:"features"`
	PlayedAt [][]int64            `json:"played_at,omitempty"`
}

// NewFeatureBatch builds a FeatureBatchMsg, storing play times as unix seconds
func NewFeatureBatch(run *model.FeatureRun, fm *model.FeatureMatrix, playedAt [][]time.Time) *FeatureBatchMsg {
	msg := &FeatureBatchMsg{Run: run, Features: fm}
	if len(playedAt) > 0 {
		msg.PlayedAt = make([][]int64, len(playedAt))
		for n, times := range playedAt {
			msg.PlayedAt[n] = make([]int64, len(times))
			for t, at := range times {
				msg.PlayedAt[n][t] = at.Unix()
			}
		}
	}
	return msg
}

// Timeline converts PlayedAt back to UTC times
func (m *FeatureBatchMsg) Timeline() [][]time.Time {
	out := make([][]time.Time, len(m.PlayedAt))
	for n, secs := range m.PlayedAt {
		out[n] = make([]time.Time, len(secs))
		for t, s := range secs {
			out[n][t] = time.Unix(s, 0).UTC()
		}
	}
	return out
}

// Validate checks that the run header agrees with the matrix
func (m *FeatureBatchMsg) Validate() error {
	if m.Run == nil || m.Features == nil {
		return fmt.Errorf("feature batch missing run or features")
	}
	f := m.Features
	if len(m.Run.Entities) != f.Entities || f.Steps*f.Entities != f.Cols ||
		len(f.Names) != f.Rows || len(f.Data) != f.Rows*f.Cols {
		return fmt.Errorf("feature batch %s has inconsistent shape", m.Run.RunID)
	}
	return nil
}

// Encode serializes a message to JSON bytes
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeResultBatch deserializes a ResultBatchMsg from JSON bytes
func DecodeResultBatch(data []byte) (*ResultBatchMsg, error) {
	var msg ResultBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeFeatureBatch deserializes and validates a FeatureBatchMsg
func DecodeFeatureBatch(data []byte) (*FeatureBatchMsg, error) {
	var msg FeatureBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
