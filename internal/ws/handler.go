package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/lettersweep/lettersweep-backend/internal/auth"
	"github.com/lettersweep/lettersweep-backend/internal/hub"
	"github.com/lettersweep/lettersweep-backend/internal/room"
	"github.com/lettersweep/lettersweep-backend/pkg/types"
)

const readTimeout = 10 * time.Minute
const writeTimeout = 3 * time.Second

// Handler runs one player's session: decode and validate the tagged client
// messages, feed them to the joined room's inbox, and stream room events back
// out. Closing the transport is an implicit leave.
func Handler(h *hub.Hub, jwtSecret string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := auth.Identify(r, jwtSecret)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		log := log.With(zap.String("player", ident.PlayerID))

		var joined *room.Room
		var joinedCode string

		defer func() {
			if joined != nil {
				joined.Inbox() <- room.Leave{PlayerID: ident.PlayerID}
			}
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (room.Leave in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}
			if err := cm.Validate(); err != nil {
				writeError(r.Context(), conn, err.Error())
				continue
			}

			code := cm.NormalizedRoomID()

			switch cm.Type {
			case types.EvtJoinRoom:
				if joined != nil {
					writeError(r.Context(), conn, "already in a room")
					continue
				}
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.EnsureRoom{Code: code, Reply: reply}
				rm := <-reply

				out := make(chan room.Event, 16)
				name := resolveName(cm.PlayerName, ident.Name)
				admit := make(chan bool, 1)
				rm.Inbox() <- room.Join{PlayerID: ident.PlayerID, Name: name, Outbox: out, Reply: admit}
				// Start draining either way: a rejected join still gets one
				// snapshot before the room closes the outbox.
				go writeLoop(writeCtx, conn, out)

				admitted := false
				select {
				case admitted = <-admit:
				case <-r.Context().Done():
					return
				}
				if !admitted {
					log.Debug("join rejected", zap.String("room", code))
					continue
				}
				joined, joinedCode = rm, code
				log.Info("joined room", zap.String("room", code))

			case types.EvtLeaveRoom:
				if joined == nil || code != joinedCode {
					continue
				}
				joined.Inbox() <- room.Leave{PlayerID: ident.PlayerID}
				joined, joinedCode = nil, ""

			default:
				if joined == nil || code != joinedCode {
					continue
				}
				if msg, ok := toRoomMsg(cm, ident.PlayerID); ok {
					joined.Inbox() <- msg
				}
			}
		}
	}
}

func toRoomMsg(m types.ClientMessage, playerID string) (room.Msg, bool) {
	switch m.Type {
	case types.EvtPlayerReady:
		return room.SetReady{PlayerID: playerID, Ready: m.IsReady}, true
	case types.EvtStartGame:
		return room.StartGame{PlayerID: playerID}, true
	case types.EvtSubmitWord:
		return room.SubmitWord{PlayerID: playerID, Word: strings.ToUpper(m.Word), Path: m.Path}, true
	case types.EvtSendMessage:
		return room.Chat{PlayerID: playerID, Message: m.Message}, true
	default:
		return nil, false
	}
}

func resolveName(requested, fromToken string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = fromToken
	}
	if name == "" {
		name = "Guest"
	}
	if len(name) > types.MaxNameLen {
		name = name[:types.MaxNameLen]
	}
	return name
}

// writeLoop drains one room membership's events onto the socket. It exits
// when the room closes the outbox (leave, drop, or room destruction).
func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan room.Event) {
	for ev := range out {
		payload, err := json.Marshal(toServerMessage(ev))
		if err != nil {
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		_ = conn.Write(wctx, websocket.MessageText, payload)
		cancel()
	}
}

func toServerMessage(ev room.Event) types.ServerMessage {
	switch ev.Kind {
	case types.EvtNewMessage:
		return types.ServerMessage{
			Type:       types.EvtNewMessage,
			PlayerName: ev.PlayerName,
			Message:    ev.Message,
			Timestamp:  ev.Timestamp,
		}
	case types.EvtPlayerLeft:
		return types.ServerMessage{Type: types.EvtPlayerLeft, PlayerID: ev.PlayerID}
	default:
		return types.ServerMessage{Type: ev.Kind, Version: ev.Version, Room: ev.Room}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	_ = conn.Write(wctx, websocket.MessageText, payload)
	cancel()
}
