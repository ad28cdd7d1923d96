package model

import "time"

// Result is one entity's scalar outcome in one game
type Result struct {
	Series   string    `json:"series"`
	GameID   string    `json:"game_id"`
	Entity   string    `json:"entity"`
	Outcome  float64   `json:"outcome"`
	PlayedAt time.Time `json:"played_at"`
}

// Won returns true if the outcome is above the neutral midpoint
func (r *Result) Won() bool {
	return r.Outcome > 0.5
}

// ResultLess orders results chronologically, breaking ties by game and entity
func ResultLess(a, b *Result) bool {
	if !a.PlayedAt.Equal(b.PlayedAt) {
		return a.PlayedAt.Before(b.PlayedAt)
	}
	if a.GameID != b.GameID {
		return a.GameID < b.GameID
	}
	return a.Entity < b.Entity
}
