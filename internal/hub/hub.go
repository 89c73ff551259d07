package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/lettersweep/lettersweep-backend/internal/engine"
	"github.com/lettersweep/lettersweep-backend/internal/oracle"
	"github.com/lettersweep/lettersweep-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// EnsureRoom looks the code up and lazily creates the room when absent, so a
// join to an unknown code brings the room into existence.
type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
	Room *room.Room // only removed if still the registered instance
}

type ShutdownHub struct{}

func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the room map. It is the only structure shared across connections;
// lookup and create/destroy are atomic because they all run on the hub loop.
type Hub struct {
	inbox     chan HubMsg
	rooms     map[string]*room.Room
	rules     engine.Rules
	validator oracle.Validator
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context, rules engine.Rules, validator oracle.Validator, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		rooms:     make(map[string]*room.Room),
		rules:     rules,
		validator: validator,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetRoom:
				rm := h.rooms[msg.Code]
				if rm != nil && !rm.Alive() {
					rm = nil
				}
				msg.Reply <- rm // may be nil

			case EnsureRoom:
				// A room that emptied may still be registered while its
				// RemoveRoom is in flight; never hand out a dead instance.
				if rm := h.rooms[msg.Code]; rm != nil && rm.Alive() {
					msg.Reply <- rm
					break
				}
				rm := h.createRoom(msg.Code)
				h.rooms[msg.Code] = rm
				msg.Reply <- rm

			case RemoveRoom:
				// A fresh room may already live under this code; only drop
				// the instance that emptied.
				if h.rooms[msg.Code] == msg.Room {
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) createRoom(code string) *room.Room {
	var rm *room.Room
	onEmpty := func(c string) {
		select {
		case h.inbox <- RemoveRoom{Code: c, Room: rm}:
		case <-h.ctx.Done():
		}
	}
	rm = room.New(h.ctx, engine.NewState(code, h.rules), h.validator, h.log, onEmpty)
	h.log.Info("room created", zap.String("room", code))
	return rm
}
