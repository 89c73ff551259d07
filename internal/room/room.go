package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lettersweep/lettersweep-backend/internal/engine"
	"github.com/lettersweep/lettersweep-backend/internal/oracle"
	"github.com/lettersweep/lettersweep-backend/pkg/types"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	PlayerID string
	Name     string
	Outbox   chan Event // where this player wants to receive events
	Reply    chan bool  // optional, buffered: whether the join was admitted
}

func (Join) isRoomMsg() {}

type Leave struct{ PlayerID string }

func (Leave) isRoomMsg() {}

type SetReady struct {
	PlayerID string
	Ready    bool
}

func (SetReady) isRoomMsg() {}

type StartGame struct{ PlayerID string }

func (StartGame) isRoomMsg() {}

type SubmitWord struct {
	PlayerID string
	Word     string
	Path     []int
}

func (SubmitWord) isRoomMsg() {}

type Chat struct {
	PlayerID string
	Message  string
}

func (Chat) isRoomMsg() {}

type GetState struct{ Reply chan View }

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// verdict carries an oracle result back onto the room's serialized loop.
type verdict struct {
	seq int
	ok  bool
}

func (verdict) isRoomMsg() {}

// timerFired is stamped with the generation that armed it so stale fires
// (a submission already advanced the turn) are dropped.
type timerFired struct{ gen int }

func (timerFired) isRoomMsg() {}

// Event is what room members receive. Room carries the full snapshot for the
// state-bearing kinds; chat and player-left ride the side fields.
type Event struct {
	Kind       string // types.EvtRoomUpdate, EvtGameStarted, EvtTurnUpdate, EvtNewMessage, EvtPlayerLeft
	Version    int
	Room       *types.RoomSnapshot
	PlayerID   string
	PlayerName string
	Message    string
	Timestamp  int64
}

// View reflects internal state for tests without data races.
type View struct {
	Version    int
	NumClients int
	Verifying  bool
	State      engine.State
}

type pendingSubmit struct {
	seq      int
	playerID string
	word     string
	path     []int
	started  time.Time
	expired  bool // turn clock ran out while the oracle was out
}

// Room owns one game session. All mutation happens on the loop goroutine;
// every inbound message and timer fire is one run-to-completion step.
type Room struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Event

	validator oracle.Validator
	log       *zap.Logger
	onEmpty   func(code string)

	pending      *pendingSubmit
	nextSeq      int
	turnTimer    *time.Timer
	timerGen     int
	turnDeadline time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, initial engine.State, validator oracle.Validator, log *zap.Logger, onEmpty func(code string)) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		inbox:     make(chan Msg, 64),
		state:     initial,
		clients:   make(map[string]chan Event),
		validator: validator,
		log:       log.With(zap.String("room", initial.Code)),
		onEmpty:   onEmpty,
		ctx:       ctx,
		cancel:    cancel,
	}

	go r.loop()
	return r
}

// Inbox exposes the serialized message channel to the ws layer and tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				if r.handleLeave(msg.PlayerID) {
					return
				}
			case SetReady:
				r.apply(engine.Command{Type: engine.CmdSetReady, PlayerID: msg.PlayerID, Ready: msg.Ready}, types.EvtRoomUpdate)
			case StartGame:
				if _, ok := r.apply(engine.Command{Type: engine.CmdStartGame, PlayerID: msg.PlayerID}, types.EvtGameStarted); ok {
					r.armTurnTimer()
				}
			case SubmitWord:
				r.handleSubmit(msg)
			case verdict:
				r.handleVerdict(msg)
			case timerFired:
				r.handleTimerFired(msg)
			case Chat:
				r.handleChat(msg)
			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					Verifying:  r.pending != nil,
					State:      r.state,
				}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	_, newState, err := engine.Apply(r.state, engine.Command{
		Type: engine.CmdJoin, PlayerID: msg.PlayerID, Name: msg.Name,
	})
	if err != nil {
		r.log.Debug("join rejected", zap.String("player", msg.PlayerID), zap.Error(err))
		r.answerRejectedJoin(msg)
		return
	}
	r.state = newState
	r.clients[msg.PlayerID] = msg.Outbox
	if msg.Reply != nil {
		select {
		case msg.Reply <- true:
		default:
		}
	}
	r.version++
	r.broadcast(Event{Kind: types.EvtRoomUpdate, Version: r.version, Room: r.snapshot()})
}

// answerRejectedJoin reports the current state once, then the connection is on
// its own. The roster is untouched.
func (r *Room) answerRejectedJoin(msg Join) {
	if msg.Reply != nil {
		select {
		case msg.Reply <- false:
		default:
		}
	}
	select {
	case msg.Outbox <- Event{Kind: types.EvtRoomUpdate, Version: r.version, Room: r.snapshot()}:
	default:
	}
	close(msg.Outbox)
}

// handleLeave reports whether the room destroyed itself.
func (r *Room) handleLeave(playerID string) bool {
	wasCurrent := false
	if cur, ok := engine.CurrentPlayer(r.state); ok && cur.ID == playerID {
		wasCurrent = true
	}

	events, newState, err := engine.Apply(r.state, engine.Command{Type: engine.CmdLeave, PlayerID: playerID})
	if err != nil {
		return false
	}
	r.state = newState

	if ch, ok := r.clients[playerID]; ok {
		close(ch)
		delete(r.clients, playerID)
	}
	// A pending verification for the leaver can never land.
	if r.pending != nil && r.pending.playerID == playerID {
		r.pending = nil
	}

	if engine.ContainsEvent(events, engine.EvtRoomEmptied) {
		r.log.Info("room emptied, destroying")
		if r.onEmpty != nil {
			r.onEmpty(r.state.Code)
		}
		r.shutdown()
		return true
	}

	// The inherited turn gets a fresh clock.
	if wasCurrent && r.state.GameState == engine.StatePlaying {
		r.armTurnTimer()
	}

	r.version++
	r.broadcast(Event{Kind: types.EvtPlayerLeft, PlayerID: playerID})
	r.broadcast(Event{Kind: types.EvtRoomUpdate, Version: r.version, Room: r.snapshot()})
	return false
}

func (r *Room) handleSubmit(msg SubmitWord) {
	if r.pending != nil {
		// One verification at a time; the rest is rejected, not queued.
		r.log.Debug("submit rejected, verification in progress", zap.String("player", msg.PlayerID))
		return
	}
	tiles, err := engine.CheckSubmit(r.state, msg.PlayerID, msg.Word, msg.Path)
	if err != nil {
		r.log.Debug("submit rejected", zap.String("player", msg.PlayerID), zap.Error(err))
		return
	}

	word := make([]byte, 0, len(tiles))
	for _, t := range tiles {
		word = append(word, t.Letter...)
	}

	r.nextSeq++
	p := &pendingSubmit{
		seq:      r.nextSeq,
		playerID: msg.PlayerID,
		word:     string(word),
		path:     msg.Path,
		started:  time.Now(),
	}
	r.pending = p

	go func() {
		ok, _ := r.validator.Validate(r.ctx, p.word)
		select {
		case r.inbox <- verdict{seq: p.seq, ok: ok}:
		case <-r.ctx.Done():
		}
	}()
}

func (r *Room) handleVerdict(v verdict) {
	if r.pending == nil || r.pending.seq != v.seq {
		// Stale: the turn moved on while the oracle was thinking.
		r.log.Debug("discarding stale oracle verdict", zap.Int("seq", v.seq))
		return
	}
	p := r.pending
	r.pending = nil

	if !v.ok {
		r.log.Debug("word rejected by oracle", zap.String("word", p.word))
		if p.expired {
			// The clock ran out during verification; advance now.
			r.forceAdvance()
		}
		return
	}

	elapsed := time.Since(p.started).Milliseconds()
	if _, ok := r.apply(engine.Command{
		Type:      engine.CmdAcceptWord,
		PlayerID:  p.playerID,
		Word:      p.word,
		Path:      p.path,
		ElapsedMS: elapsed,
		Now:       time.Now().UnixMilli(),
	}, types.EvtTurnUpdate); ok {
		r.afterAdvance()
	}
}

func (r *Room) handleTimerFired(f timerFired) {
	if f.gen != r.timerGen || r.state.GameState != engine.StatePlaying {
		return
	}
	if r.pending != nil {
		// Don't race the oracle; remember the expiry and settle on verdict.
		r.pending.expired = true
		return
	}
	r.forceAdvance()
}

func (r *Room) forceAdvance() {
	if _, ok := r.apply(engine.Command{Type: engine.CmdTimeoutAdvance}, types.EvtTurnUpdate); ok {
		r.afterAdvance()
	}
}

func (r *Room) afterAdvance() {
	if r.state.GameState == engine.StatePlaying {
		r.armTurnTimer()
	} else {
		r.stopTurnTimer()
	}
}

func (r *Room) handleChat(msg Chat) {
	name := "Unknown"
	for _, p := range r.state.Players {
		if p.ID == msg.PlayerID {
			name = p.Name
			break
		}
	}
	// Chat never mutates room state, so no version bump.
	r.broadcast(Event{
		Kind:       types.EvtNewMessage,
		PlayerName: name,
		Message:    msg.Message,
		Timestamp:  time.Now().UnixMilli(),
	})
}

// apply runs a command, bumps the version, and broadcasts a snapshot under
// the given event kind. Rejected commands change nothing and stay silent.
func (r *Room) apply(cmd engine.Command, kind string) ([]engine.Event, bool) {
	events, newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		r.log.Debug("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return nil, false
	}
	r.state = newState
	// The terminal transition is a room state change, not another turn.
	if engine.ContainsEvent(events, engine.EvtGameCompleted) {
		kind = types.EvtRoomUpdate
	}
	r.version++
	r.broadcast(Event{Kind: kind, Version: r.version, Room: r.snapshot()})
	return events, true
}

func (r *Room) armTurnTimer() {
	r.timerGen++
	gen := r.timerGen
	d := time.Duration(r.state.Rules.TurnTimeMS) * time.Millisecond
	r.turnDeadline = time.Now().Add(d)
	r.stopTurnTimer()
	r.turnTimer = time.AfterFunc(d, func() {
		select {
		case r.inbox <- timerFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) stopTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

func (r *Room) timeLeftMS() int64 {
	if r.state.GameState != engine.StatePlaying {
		return 0
	}
	left := time.Until(r.turnDeadline).Milliseconds()
	if left < 0 {
		return 0
	}
	return left
}

func (r *Room) snapshot() *types.RoomSnapshot {
	return types.SnapshotFrom(r.state, r.timeLeftMS())
}

func (r *Room) broadcast(ev Event) {
	for id, ch := range r.clients {
		select {
		case ch <- ev:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
		}
	}
}

// Alive reports whether the room loop is still running. The hub consults it
// so a dying room is never handed to a new joiner.
func (r *Room) Alive() bool { return r.ctx.Err() == nil }

func (r *Room) shutdown() {
	// Cancel before anything observable happens: once an outbox closes, a
	// liveness check must already read this room as dead.
	r.cancel()
	r.stopTurnTimer()
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.drainInbox()
}

// drainInbox answers whatever was already queued when the room died, so no
// sender is left waiting on a channel nobody reads. Joins get the rejected
// treatment (snapshot, then closed outbox) and state queries get a reply.
func (r *Room) drainInbox() {
	for {
		select {
		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.answerRejectedJoin(msg)
			case GetState:
				select {
				case msg.Reply <- View{Version: r.version, State: r.state}:
				default:
				}
			}
		default:
			return
		}
	}
}
