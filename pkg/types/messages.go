package types

import (
	"errors"
	"strings"
)

// Client -> Server event names.
const (
	EvtJoinRoom    = "join-room"
	EvtPlayerReady = "player-ready"
	EvtStartGame   = "start-game"
	EvtSubmitWord  = "submit-word"
	EvtSendMessage = "send-message"
	EvtLeaveRoom   = "leave-room"
)

// Server -> Client event names.
const (
	EvtRoomUpdate  = "room-update"
	EvtGameStarted = "game-started"
	EvtTurnUpdate  = "turn-update"
	EvtNewMessage  = "new-message"
	EvtPlayerLeft  = "player-left"
)

const MaxNameLen = 20
const MaxChatLen = 500

var ErrUnknownEvent = errors.New("unknown event type")
var ErrMissingRoomID = errors.New("missing roomId")
var ErrBadPlayerName = errors.New("playerName must be 1-20 chars")
var ErrEmptyWord = errors.New("missing word or path")
var ErrEmptyMessage = errors.New("empty chat message")

// ClientMessage is the single tagged envelope for everything a client sends.
// Validate enforces the closed schema before anything reaches game logic.
type ClientMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	IsReady    bool   `json:"isReady,omitempty"`
	Word       string `json:"word,omitempty"`
	Path       []int  `json:"path,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (m ClientMessage) Validate() error {
	if strings.TrimSpace(m.RoomID) == "" {
		return ErrMissingRoomID
	}
	switch m.Type {
	case EvtJoinRoom:
		name := strings.TrimSpace(m.PlayerName)
		if name == "" || len(name) > MaxNameLen {
			return ErrBadPlayerName
		}
	case EvtSubmitWord:
		if m.Word == "" && len(m.Path) == 0 {
			return ErrEmptyWord
		}
	case EvtSendMessage:
		if strings.TrimSpace(m.Message) == "" || len(m.Message) > MaxChatLen {
			return ErrEmptyMessage
		}
	case EvtPlayerReady, EvtStartGame, EvtLeaveRoom:
		// room id is all these need
	default:
		return ErrUnknownEvent
	}
	return nil
}

// NormalizedRoomID is the case-insensitive dedup key for room codes.
func (m ClientMessage) NormalizedRoomID() string {
	return strings.ToUpper(strings.TrimSpace(m.RoomID))
}

// ServerMessage is the envelope for everything the server pushes.
type ServerMessage struct {
	Type       string        `json:"type"`
	Version    int           `json:"version,omitempty"`
	Room       *RoomSnapshot `json:"room,omitempty"`
	PlayerID   string        `json:"playerId,omitempty"`
	PlayerName string        `json:"playerName,omitempty"`
	Message    string        `json:"message,omitempty"`
	Timestamp  int64         `json:"timestamp,omitempty"`
	Error      string        `json:"error,omitempty"`
}
