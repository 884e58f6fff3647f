package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/engine"
	"github.com/sphera-labs/sphera-backend/internal/types"
)

type Msg interface{ isSessionMsg() }

// Join seats a second player. Reply carries engine.ErrSessionFull when the
// session already has two members.
type Join struct {
	ConnID    string
	Name      string
	Selection []string
	Outbox    chan types.ServerMessage
	Reply     chan error
}

func (Join) isSessionMsg() {}

type Ready struct {
	ConnID    string
	Selection []string
}

func (Ready) isSessionMsg() {}

type Pick struct {
	ConnID    string
	CardID    string
	Attribute string
	Value     int
}

func (Pick) isSessionMsg() {}

// Leave is sent on disconnect. The remaining member is notified; the reply
// tells the hub whether the session was abandoned before the match started.
type Leave struct {
	ConnID string
	Reply  chan LeaveInfo
}

func (Leave) isSessionMsg() {}

type LeaveInfo struct {
	WasMember bool
	Abandoned bool
}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// View reflects internal state without data races; test hook.
type View struct {
	State      engine.Session
	NumClients int
}

// Session is the actor owning one match. All mutations run on its loop
// goroutine, so each round resolves exactly once no matter how the two
// players' submissions interleave.
type Session struct {
	inbox   chan Msg
	state   engine.Session
	clients map[string]chan types.ServerMessage
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New starts the actor for a freshly created session. The creator's outbox
// is registered immediately so lifecycle events reach it.
func New(parent context.Context, log *zap.Logger, state engine.Session, creatorOutbox chan types.ServerMessage) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:   make(chan Msg, 64),
		state:   state,
		clients: map[string]chan types.ServerMessage{state.Players[0].ID: creatorOutbox},
		log:     log.With(zap.String("code", state.Code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) ID() string   { return s.state.ID }
func (s *Session) Code() string { return s.state.Code }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.handleJoin(msg)

			case Ready:
				s.apply(engine.Command{
					Type:      engine.CmdReady,
					ConnID:    msg.ConnID,
					Selection: msg.Selection,
				})

			case Pick:
				s.apply(engine.Command{
					Type:      engine.CmdPickStat,
					ConnID:    msg.ConnID,
					CardID:    msg.CardID,
					Attribute: msg.Attribute,
					Value:     msg.Value,
				})

			case Leave:
				s.handleLeave(msg)

			case GetState:
				msg.Reply <- View{State: s.state, NumClients: len(s.clients)}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleJoin(msg Join) {
	events, newState, err := engine.Apply(s.state, engine.Command{
		Type:      engine.CmdJoin,
		ConnID:    msg.ConnID,
		Name:      msg.Name,
		Selection: msg.Selection,
	})
	if err != nil {
		msg.Reply <- err
		return
	}
	s.state = newState
	s.clients[msg.ConnID] = msg.Outbox
	msg.Reply <- nil
	s.route(events)
}

func (s *Session) handleLeave(msg Leave) {
	delete(s.clients, msg.ConnID)

	events, newState, err := engine.Apply(s.state, engine.Command{
		Type:   engine.CmdLeave,
		ConnID: msg.ConnID,
	})
	if err != nil {
		msg.Reply <- LeaveInfo{}
		return
	}
	s.state = newState
	s.route(events)
	msg.Reply <- LeaveInfo{
		WasMember: true,
		Abandoned: s.state.Status == engine.StatusWaiting,
	}
}

// apply runs a fire-and-forget command. Stale messages from races with a
// disconnect are dropped, not surfaced.
func (s *Session) apply(cmd engine.Command) {
	events, newState, err := engine.Apply(s.state, cmd)
	if err != nil {
		if errors.Is(err, engine.ErrNotMember) || errors.Is(err, engine.ErrMatchOver) {
			s.log.Debug("dropped stale command",
				zap.String("cmd", string(cmd.Type)),
				zap.String("conn", cmd.ConnID),
				zap.Error(err))
			return
		}
		s.log.Warn("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return
	}
	s.state = newState
	s.route(events)
}

// route delivers engine events to one member's outbox or to every member.
func (s *Session) route(events []engine.Event) {
	for _, ev := range events {
		msg := s.serverMessage(ev)
		if ev.To == "" {
			s.broadcast(msg)
			continue
		}
		ch, ok := s.clients[ev.To]
		if !ok {
			continue
		}
		s.send(ev.To, ch, msg)
	}
}

func (s *Session) broadcast(msg types.ServerMessage) {
	for id, ch := range s.clients {
		s.send(id, ch, msg)
	}
}

// send never blocks and never closes the outbox: the channel belongs to the
// ws connection, which may outlive this session and reuse it for the next
// one. Slow clients are just dropped from the routing table.
func (s *Session) send(id string, ch chan types.ServerMessage, msg types.ServerMessage) {
	select {
	case ch <- msg:
	default:
		s.log.Warn("dropping slow client", zap.String("conn", id))
		delete(s.clients, id)
	}
}

func (s *Session) serverMessage(ev engine.Event) types.ServerMessage {
	switch ev.Type {
	case engine.EvtSessionJoined:
		return types.ServerMessage{
			Type:        types.MsgSessionJoined,
			SessionID:   s.state.ID,
			SessionCode: s.state.Code,
			Opponent:    &types.OpponentInfo{Name: ev.OpponentName},
		}
	case engine.EvtOpponentJoined:
		return types.ServerMessage{Type: types.MsgOpponentJoined, OpponentName: ev.OpponentName}
	case engine.EvtMatchStarted:
		round := ev.Round
		return types.ServerMessage{
			Type:         types.MsgMatchStarted,
			Players:      ev.Players,
			CurrentRound: &round,
		}
	case engine.EvtOpponentReady:
		return types.ServerMessage{Type: types.MsgOpponentReady}
	case engine.EvtOpponentSelected:
		return types.ServerMessage{Type: types.MsgOpponentSelected}
	case engine.EvtRoundResolved:
		return types.ServerMessage{
			Type:        types.MsgRoundResolved,
			RoundResult: ev.Result,
			NextRound:   ev.Round,
		}
	case engine.EvtMatchCompleted:
		return types.ServerMessage{
			Type:   types.MsgMatchCompleted,
			Rounds: ev.Rounds,
			Winner: ev.Winner,
			Score:  ev.Score,
		}
	case engine.EvtOpponentLeft:
		return types.ServerMessage{Type: types.MsgOpponentLeft}
	default:
		return types.ServerMessage{Type: string(ev.Type)}
	}
}

func (s *Session) shutdown() {
	clear(s.clients)
	s.cancel()
}
