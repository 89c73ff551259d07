package types

import (
	"github.com/lettersweep/lettersweep-backend/internal/engine"
	"github.com/lettersweep/lettersweep-backend/internal/grid"
)

// RoomSnapshot is the full room state broadcast to every member on any
// mutation. Clients never receive anything smaller; there is no delta
// protocol.
type RoomSnapshot struct {
	ID                 string              `json:"id"`
	Players            []PlayerSnapshot    `json:"players"`
	GameState          string              `json:"gameState"`
	CurrentPlayerIndex int                 `json:"currentPlayerIndex"`
	CurrentRound       int                 `json:"currentRound"`
	TotalRounds        int                 `json:"totalRounds"`
	Grid               []grid.Tile         `json:"grid"`
	FoundWords         []FoundWordSnapshot `json:"foundWords"`
	TimeLeft           int64               `json:"timeLeft"` // milliseconds
}

type PlayerSnapshot struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	IsReady bool   `json:"isReady"`
	IsHost  bool   `json:"isHost"`
	Combo   int    `json:"combo"`
	Streak  int    `json:"streak"`
}

type FoundWordSnapshot struct {
	Word                   string   `json:"word"`
	Score                  int      `json:"score"`
	Bonuses                []string `json:"bonuses"`
	Timestamp              int64    `json:"timestamp"`
	ComboMultiplierApplied int      `json:"comboMultiplierApplied"`
}

// SnapshotFrom flattens engine state into the wire shape. timeLeftMS is
// supplied by the room, which owns the turn clock.
func SnapshotFrom(s engine.State, timeLeftMS int64) *RoomSnapshot {
	snap := &RoomSnapshot{
		ID:                 s.Code,
		Players:            make([]PlayerSnapshot, 0, len(s.Players)),
		GameState:          string(s.GameState),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		CurrentRound:       s.CurrentRound,
		TotalRounds:        s.Rules.TotalRounds,
		Grid:               s.Grid,
		FoundWords:         make([]FoundWordSnapshot, 0, len(s.FoundWords)),
		TimeLeft:           timeLeftMS,
	}
	for _, p := range s.Players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID: p.ID, Name: p.Name, Score: p.Score,
			IsReady: p.IsReady, IsHost: p.IsHost,
			Combo: p.Combo, Streak: p.Streak,
		})
	}
	for _, fw := range s.FoundWords {
		snap.FoundWords = append(snap.FoundWords, FoundWordSnapshot{
			Word: fw.Word, Score: fw.Score, Bonuses: fw.Bonuses,
			Timestamp: fw.Timestamp, ComboMultiplierApplied: fw.ComboMultiplierApplied,
		})
	}
	return snap
}
