package engine

// NewState builds a freshly created room in the lobby.
func NewState(code string, rules Rules) State {
	return State{
		Code:               code,
		Players:            []Player{},
		GameState:          StateLobby,
		CurrentPlayerIndex: 0,
		CurrentRound:       1,
		Rules:              rules,
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// CurrentPlayer returns the player whose turn it is, or false when the room
// is not playing.
func CurrentPlayer(s State) (Player, bool) {
	if s.GameState != StatePlaying || len(s.Players) == 0 {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}
