package engine

import (
	"errors"
	"slices"

	"github.com/lettersweep/lettersweep-backend/internal/grid"
	"github.com/lettersweep/lettersweep-backend/internal/scoring"
)

var ErrWrongTurn = errors.New("not this player's turn")
var ErrNotPlaying = errors.New("room is not playing")
var ErrNotInLobby = errors.New("room is not in lobby")
var ErrNotHost = errors.New("requester is not host")
var ErrNotAllReady = errors.New("not all players ready")
var ErrNotEnoughPlayers = errors.New("not enough players")
var ErrRoomFull = errors.New("room is full")
var ErrAlreadyJoined = errors.New("player already in room")
var ErrUnknownPlayer = errors.New("player not in room")
var ErrWordTooShort = errors.New("word too short")
var ErrDuplicateWord = errors.New("word already found")
var ErrWordMismatch = errors.New("word does not match path")
var ErrUnsupportedCommand = errors.New("unsupported command")

const MinWordLen = 3

type GameState string

const (
	StateLobby    GameState = "LOBBY"
	StatePlaying  GameState = "PLAYING"
	StateGameOver GameState = "GAME_OVER"
)

type Player struct {
	ID      string
	Name    string
	Score   int
	IsReady bool
	IsHost  bool
	Combo   int
	Streak  int
}

type FoundWord struct {
	Word                   string
	Score                  int
	Bonuses                []string
	Timestamp              int64
	ComboMultiplierApplied int
}

type Rules struct {
	GridSize     int
	TotalRounds  int
	MaxPlayers   int
	MinPlayers   int
	TurnTimeMS   int64
	RefillPolicy grid.RefillPolicy
	ComboPolicy  scoring.ComboPolicy
}

// State is one room's authoritative game state. Apply never mutates its
// argument; callers always get a fresh State back.
type State struct {
	Code               string
	Players            []Player // join order = turn order
	GameState          GameState
	CurrentPlayerIndex int
	CurrentRound       int
	Grid               grid.Grid
	FoundWords         []FoundWord // most recent first
	Rules              Rules
}

type CommandType string

const (
	CmdJoin           CommandType = "Join"
	CmdLeave          CommandType = "Leave"
	CmdSetReady       CommandType = "SetReady"
	CmdStartGame      CommandType = "StartGame"
	CmdAcceptWord     CommandType = "AcceptWord"
	CmdTimeoutAdvance CommandType = "TimeoutAdvance"
)

type Command struct {
	Type      CommandType
	PlayerID  string
	Name      string
	Ready     bool
	Word      string
	Path      []int
	ElapsedMS int64
	Now       int64 // unix millis, supplied by the caller so Apply stays deterministic
}

type EventType string

const (
	EvtPlayerJoined  EventType = "PlayerJoined"
	EvtPlayerLeft    EventType = "PlayerLeft"
	EvtHostChanged   EventType = "HostChanged"
	EvtReadyChanged  EventType = "ReadyChanged"
	EvtGameStarted   EventType = "GameStarted"
	EvtWordAccepted  EventType = "WordAccepted"
	EvtTurnAdvanced  EventType = "TurnAdvanced"
	EvtRoundAdvanced EventType = "RoundAdvanced"
	EvtGameCompleted EventType = "GameCompleted"
	EvtRoomEmptied   EventType = "RoomEmptied"
)

type Event struct {
	Type     EventType
	PlayerID string
	Word     string
	Score    int
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	newState := s
	newState.Players = slices.Clone(s.Players)

	switch cmd.Type {
	case CmdJoin:
		if playerIndex(s, cmd.PlayerID) != -1 {
			return nil, s, ErrAlreadyJoined
		}
		if len(s.Players) >= s.Rules.MaxPlayers {
			return nil, s, ErrRoomFull
		}
		p := Player{ID: cmd.PlayerID, Name: cmd.Name, IsHost: len(s.Players) == 0}
		newState.Players = append(newState.Players, p)
		return []Event{{Type: EvtPlayerJoined, PlayerID: p.ID}}, newState, nil

	case CmdLeave:
		i := playerIndex(s, cmd.PlayerID)
		if i == -1 {
			return nil, s, ErrUnknownPlayer
		}
		wasHost := s.Players[i].IsHost
		newState.Players = slices.Delete(newState.Players, i, i+1)
		events := []Event{{Type: EvtPlayerLeft, PlayerID: cmd.PlayerID}}

		if len(newState.Players) == 0 {
			events = append(events, Event{Type: EvtRoomEmptied})
			return events, newState, nil
		}
		if wasHost {
			// Earliest remaining joiner inherits the room.
			newState.Players[0].IsHost = true
			events = append(events, Event{Type: EvtHostChanged, PlayerID: newState.Players[0].ID})
		}
		if s.GameState == StatePlaying {
			if i < newState.CurrentPlayerIndex {
				newState.CurrentPlayerIndex--
			}
			if newState.CurrentPlayerIndex >= len(newState.Players) {
				newState.CurrentPlayerIndex = 0
			}
		}
		return events, newState, nil

	case CmdSetReady:
		if s.GameState != StateLobby {
			return nil, s, ErrNotInLobby
		}
		i := playerIndex(s, cmd.PlayerID)
		if i == -1 {
			return nil, s, ErrUnknownPlayer
		}
		newState.Players[i].IsReady = cmd.Ready
		return []Event{{Type: EvtReadyChanged, PlayerID: cmd.PlayerID}}, newState, nil

	case CmdStartGame:
		if s.GameState != StateLobby {
			return nil, s, ErrNotInLobby
		}
		i := playerIndex(s, cmd.PlayerID)
		if i == -1 {
			return nil, s, ErrUnknownPlayer
		}
		if !s.Players[i].IsHost {
			return nil, s, ErrNotHost
		}
		if len(s.Players) < s.Rules.MinPlayers {
			return nil, s, ErrNotEnoughPlayers
		}
		for _, p := range s.Players {
			if !p.IsReady {
				return nil, s, ErrNotAllReady
			}
		}
		for i := range newState.Players {
			newState.Players[i].Score = 0
			newState.Players[i].Combo = 0
			newState.Players[i].Streak = 0
		}
		newState.GameState = StatePlaying
		newState.CurrentPlayerIndex = 0
		newState.CurrentRound = 1
		newState.Grid = grid.NewGrid(s.Rules.GridSize)
		newState.FoundWords = nil
		return []Event{{Type: EvtGameStarted}}, newState, nil

	case CmdAcceptWord:
		// Recheck everything: the room may have moved on while the oracle
		// was out, and a stale accept must not land.
		tiles, err := CheckSubmit(s, cmd.PlayerID, cmd.Word, cmd.Path)
		if err != nil {
			return nil, s, err
		}
		i := playerIndex(s, cmd.PlayerID)
		streak := newState.Players[i].Streak + 1
		level := scoring.ComboLevelFor(streak)
		res := scoring.Score(tiles, scoring.Context{
			ComboLevel: level,
			GridCells:  s.Rules.GridSize * s.Rules.GridSize,
			ElapsedMS:  cmd.ElapsedMS,
			Policy:     s.Rules.ComboPolicy,
		})

		newState.Players[i].Score += res.Total
		newState.Players[i].Streak = streak
		if level >= 2 {
			newState.Players[i].Combo = level
		} else {
			newState.Players[i].Combo = 0
		}

		labels := make([]string, 0, len(res.Bonuses))
		for _, b := range res.Bonuses {
			labels = append(labels, b.Label)
		}
		fw := FoundWord{
			Word:                   grid.Word(s.Grid, cmd.Path),
			Score:                  res.Total,
			Bonuses:                labels,
			Timestamp:              cmd.Now,
			ComboMultiplierApplied: level,
		}
		newState.FoundWords = append([]FoundWord{fw}, s.FoundWords...)
		newState.Grid = grid.ConsumeAndRefill(s.Grid, s.Rules.GridSize, cmd.Path, s.Rules.RefillPolicy)

		events := []Event{{Type: EvtWordAccepted, PlayerID: cmd.PlayerID, Word: fw.Word, Score: res.Total}}
		events = append(events, advanceTurn(&newState)...)
		return events, newState, nil

	case CmdTimeoutAdvance:
		if s.GameState != StatePlaying {
			return nil, s, ErrNotPlaying
		}
		// Running out the clock breaks the streak.
		cur := newState.CurrentPlayerIndex
		newState.Players[cur].Streak = 0
		newState.Players[cur].Combo = 0
		events := advanceTurn(&newState)
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// CheckSubmit validates a submission up to (but not including) the oracle
// verdict: room state, turn ownership, path shape, length, and duplicates.
func CheckSubmit(s State, playerID, word string, path []int) ([]grid.Tile, error) {
	if s.GameState != StatePlaying {
		return nil, ErrNotPlaying
	}
	i := playerIndex(s, playerID)
	if i == -1 {
		return nil, ErrUnknownPlayer
	}
	if i != s.CurrentPlayerIndex {
		return nil, ErrWrongTurn
	}
	if len(path) < MinWordLen {
		return nil, ErrWordTooShort
	}
	if err := grid.ValidatePath(s.Rules.GridSize, path); err != nil {
		return nil, err
	}
	spelled := grid.Word(s.Grid, path)
	if word != "" && word != spelled {
		return nil, ErrWordMismatch
	}
	for _, fw := range s.FoundWords {
		if fw.Word == spelled {
			return nil, ErrDuplicateWord
		}
	}
	return grid.Tiles(s.Grid, path), nil
}

// advanceTurn rotates to the next player, bumping the round on wraparound and
// ending the game past the final round. On game over the index stays put.
func advanceTurn(s *State) []Event {
	next := (s.CurrentPlayerIndex + 1) % len(s.Players)
	events := []Event{}
	if next == 0 {
		if s.CurrentRound+1 > s.Rules.TotalRounds {
			s.GameState = StateGameOver
			return append(events, Event{Type: EvtGameCompleted})
		}
		s.CurrentRound++
		events = append(events, Event{Type: EvtRoundAdvanced})
	}
	s.CurrentPlayerIndex = next
	events = append(events, Event{Type: EvtTurnAdvanced, PlayerID: s.Players[next].ID})
	return events
}

func playerIndex(s State, id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
