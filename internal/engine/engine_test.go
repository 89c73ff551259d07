package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettersweep/lettersweep-backend/internal/grid"
	"github.com/lettersweep/lettersweep-backend/internal/scoring"
)

func testRules() Rules {
	return Rules{
		GridSize:     4,
		TotalRounds:  5,
		MaxPlayers:   4,
		MinPlayers:   2,
		TurnTimeMS:   15000,
		RefillPolicy: grid.RefillGravity,
		ComboPolicy:  scoring.ComboBonusOnly,
	}
}

func gridOf(size int, letters string) grid.Grid {
	g := make(grid.Grid, size*size)
	for i, r := range letters {
		g[i] = grid.Tile{ID: i, Letter: string(r), WordMult: grid.WordMultNone, LetterMult: grid.LetterMultNone}
	}
	return g
}

// playingState builds a mid-game room with the given players, all on a
// known grid so paths spell predictable words.
func playingState(playerIDs ...string) State {
	s := NewState("ABCD", testRules())
	for _, id := range playerIDs {
		s.Players = append(s.Players, Player{ID: id, Name: id, IsHost: len(s.Players) == 0, IsReady: true})
	}
	s.GameState = StatePlaying
	s.CurrentRound = 1
	s.CurrentPlayerIndex = 0
	// row 0: T E A M / row 1: S R C K / ...
	s.Grid = gridOf(4, "TEAMSRCKLONGDIRE")
	return s
}

func mustApply(t *testing.T, s State, cmd Command) ([]Event, State) {
	t.Helper()
	events, newState, err := Apply(s, cmd)
	require.NoError(t, err)
	return events, newState
}

func TestJoin_FirstPlayerBecomesHost(t *testing.T) {
	s := NewState("ABCD", testRules())
	_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "p1", Name: "Ana"})
	_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "p2", Name: "Bo"})

	require.Len(t, s.Players, 2)
	assert.True(t, s.Players[0].IsHost)
	assert.False(t, s.Players[1].IsHost)
	assert.Equal(t, StateLobby, s.GameState)
}

func TestJoin_RejectsWhenFull(t *testing.T) {
	s := NewState("ABCD", testRules())
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: id, Name: id})
	}
	_, after, err := Apply(s, Command{Type: CmdJoin, PlayerID: "p5", Name: "p5"})
	require.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, s, after)
}

func TestJoin_RejectsDuplicateID(t *testing.T) {
	s := NewState("ABCD", testRules())
	_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "p1", Name: "Ana"})
	_, _, err := Apply(s, Command{Type: CmdJoin, PlayerID: "p1", Name: "Ana"})
	require.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestStartGame_Gating(t *testing.T) {
	base := NewState("ABCD", testRules())
	_, base = mustApply(t, base, Command{Type: CmdJoin, PlayerID: "p1", Name: "Ana"})
	_, base = mustApply(t, base, Command{Type: CmdJoin, PlayerID: "p2", Name: "Bo"})

	cases := []struct {
		name    string
		prep    func(State) State
		starter string
		wantErr error
	}{
		{
			name: "not host",
			prep: func(s State) State {
				for _, cmd := range readyAll(s) {
					_, s = mustApply(t, s, cmd)
				}
				return s
			},
			starter: "p2",
			wantErr: ErrNotHost,
		},
		{
			name:    "not all ready",
			prep:    func(s State) State { return s },
			starter: "p1",
			wantErr: ErrNotAllReady,
		},
		{
			name: "too few players",
			prep: func(s State) State {
				_, s = mustApply(t, s, Command{Type: CmdLeave, PlayerID: "p2"})
				_, s = mustApply(t, s, Command{Type: CmdSetReady, PlayerID: "p1", Ready: true})
				return s
			},
			starter: "p1",
			wantErr: ErrNotEnoughPlayers,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.prep(base)
			_, after, err := Apply(s, Command{Type: CmdStartGame, PlayerID: tc.starter})
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, s.GameState, after.GameState)
		})
	}
}

// readyAll is a convenience: it marks every player ready one command at a time.
func readyAll(s State) []Command {
	cmds := make([]Command, 0, len(s.Players))
	for _, p := range s.Players {
		cmds = append(cmds, Command{Type: CmdSetReady, PlayerID: p.ID, Ready: true})
	}
	return cmds
}

func TestStartGame_Succeeds(t *testing.T) {
	s := NewState("ABCD", testRules())
	_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "p1", Name: "Ana"})
	_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "p2", Name: "Bo"})
	for _, cmd := range readyAll(s) {
		_, s = mustApply(t, s, cmd)
	}

	events, s := mustApply(t, s, Command{Type: CmdStartGame, PlayerID: "p1"})
	assert.True(t, ContainsEvent(events, EvtGameStarted))
	assert.Equal(t, StatePlaying, s.GameState)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Len(t, s.Grid, 16)
	assert.Empty(t, s.FoundWords)
}

func TestAdvance_FullRotationBumpsRound(t *testing.T) {
	s := playingState("p1", "p2", "p3")
	startIdx, startRound := s.CurrentPlayerIndex, s.CurrentRound

	for i := 0; i < len(s.Players); i++ {
		_, s = mustApply(t, s, Command{Type: CmdTimeoutAdvance})
	}
	assert.Equal(t, startIdx, s.CurrentPlayerIndex)
	assert.Equal(t, startRound+1, s.CurrentRound)
	assert.Equal(t, StatePlaying, s.GameState)
}

func TestAcceptWord_ScoresAndAdvances(t *testing.T) {
	s := playingState("p1", "p2")

	// Path 0,1,2 spells TEA: 1+1+1 = 3 points, no bonuses at 3 letters.
	events, s := mustApply(t, s, Command{
		Type: CmdAcceptWord, PlayerID: "p1", Word: "TEA",
		Path: []int{0, 1, 2}, ElapsedMS: 5000, Now: 1234,
	})

	assert.True(t, ContainsEvent(events, EvtWordAccepted))
	assert.True(t, ContainsEvent(events, EvtTurnAdvanced))
	assert.Equal(t, 3, s.Players[0].Score)
	assert.Equal(t, 1, s.Players[0].Streak)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, 1, s.CurrentRound)

	require.Len(t, s.FoundWords, 1)
	assert.Equal(t, "TEA", s.FoundWords[0].Word)
	assert.Equal(t, 3, s.FoundWords[0].Score)
	assert.EqualValues(t, 1234, s.FoundWords[0].Timestamp)
	assert.Len(t, s.Grid, 16)
}

func TestAcceptWord_DuplicateScoresNothing(t *testing.T) {
	s := playingState("p1", "p2")
	s.FoundWords = []FoundWord{{Word: "TEA", Score: 3}}

	_, after, err := Apply(s, Command{
		Type: CmdAcceptWord, PlayerID: "p1", Word: "TEA", Path: []int{0, 1, 2},
	})
	require.ErrorIs(t, err, ErrDuplicateWord)
	assert.Equal(t, s, after)
}

func TestCheckSubmit_Rejections(t *testing.T) {
	s := playingState("p1", "p2")

	cases := []struct {
		name    string
		player  string
		word    string
		path    []int
		prep    func(*State)
		wantErr error
	}{
		{"wrong turn", "p2", "TEA", []int{0, 1, 2}, nil, ErrWrongTurn},
		{"unknown player", "ghost", "TEA", []int{0, 1, 2}, nil, ErrUnknownPlayer},
		{"too short", "p1", "TE", []int{0, 1}, nil, ErrWordTooShort},
		{"word mismatch", "p1", "TAX", []int{0, 1, 2}, nil, ErrWordMismatch},
		{"broken path", "p1", "", []int{0, 15, 3}, nil, grid.ErrNotAdjacent},
		{"not playing", "p1", "TEA", []int{0, 1, 2}, func(s *State) { s.GameState = StateLobby }, ErrNotPlaying},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := s
			if tc.prep != nil {
				tc.prep(&state)
			}
			_, err := CheckSubmit(state, tc.player, tc.word, tc.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
		})
	}
}

func TestAcceptWord_StreakEscalatesCombo(t *testing.T) {
	s := playingState("p1", "p2")

	// Two accepted words in a row lift p1 to combo level 2; the timeout in
	// between belongs to p2 and leaves p1's streak alone.
	_, s = mustApply(t, s, Command{Type: CmdAcceptWord, PlayerID: "p1", Path: []int{0, 1, 2}, ElapsedMS: 5000})
	assert.Equal(t, 1, s.Players[0].Streak)
	assert.Equal(t, 0, s.Players[0].Combo)

	_, s = mustApply(t, s, Command{Type: CmdTimeoutAdvance}) // p2 times out
	require.Equal(t, 0, s.CurrentPlayerIndex)

	_, s = mustApply(t, s, Command{Type: CmdAcceptWord, PlayerID: "p1", Path: []int{4, 5, 8}, ElapsedMS: 5000})
	assert.Equal(t, 2, s.Players[0].Streak)
	assert.Equal(t, 2, s.Players[0].Combo)
}

func TestTimeout_ResetsStreak(t *testing.T) {
	s := playingState("p1", "p2")
	s.Players[0].Streak = 3
	s.Players[0].Combo = 2

	_, s = mustApply(t, s, Command{Type: CmdTimeoutAdvance})
	assert.Equal(t, 0, s.Players[0].Streak)
	assert.Equal(t, 0, s.Players[0].Combo)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

func TestLastTurnOfLastRound_EndsGame(t *testing.T) {
	s := playingState("p1", "p2")
	s.CurrentRound = s.Rules.TotalRounds
	s.CurrentPlayerIndex = 1 // last player

	events, s := mustApply(t, s, Command{
		Type: CmdAcceptWord, PlayerID: "p2", Path: []int{0, 1, 2}, ElapsedMS: 5000,
	})
	assert.True(t, ContainsEvent(events, EvtGameCompleted))
	assert.Equal(t, StateGameOver, s.GameState)
	assert.Equal(t, s.Rules.TotalRounds, s.CurrentRound)
	assert.Equal(t, 1, s.CurrentPlayerIndex) // index frozen on game over

	// No further submissions are accepted.
	_, _, err := Apply(s, Command{Type: CmdAcceptWord, PlayerID: "p1", Path: []int{4, 5, 6}})
	require.ErrorIs(t, err, ErrNotPlaying)
}

func TestLeave_HostTransfersToEarliestRemaining(t *testing.T) {
	s := NewState("ABCD", testRules())
	for _, id := range []string{"p1", "p2", "p3"} {
		_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: id, Name: id})
	}

	events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "p1"})
	assert.True(t, ContainsEvent(events, EvtHostChanged))

	hosts := 0
	for _, p := range s.Players {
		if p.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)
	assert.True(t, s.Players[0].IsHost)
	assert.Equal(t, "p2", s.Players[0].ID)
}

func TestLeave_LastPlayerEmptiesRoom(t *testing.T) {
	s := NewState("ABCD", testRules())
	_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: "p1", Name: "Ana"})
	events, s := mustApply(t, s, Command{Type: CmdLeave, PlayerID: "p1"})
	assert.True(t, ContainsEvent(events, EvtRoomEmptied))
	assert.Empty(t, s.Players)
}

func TestLeave_MidGameKeepsIndexValid(t *testing.T) {
	s := playingState("p1", "p2", "p3")
	s.CurrentPlayerIndex = 2

	// The player ahead of the cursor leaves; the cursor shifts with the slice.
	_, s = mustApply(t, s, Command{Type: CmdLeave, PlayerID: "p1"})
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, "p3", s.Players[s.CurrentPlayerIndex].ID)

	// The current (last) player leaves; the cursor wraps to the front.
	_, s = mustApply(t, s, Command{Type: CmdLeave, PlayerID: "p3"})
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	require.Less(t, s.CurrentPlayerIndex, len(s.Players))
}
