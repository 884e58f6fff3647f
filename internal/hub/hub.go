package hub

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/engine"
	"github.com/sphera-labs/sphera-backend/internal/session"
	"github.com/sphera-labs/sphera-backend/internal/types"
)

type Msg interface{ isHubMsg() }

// Create makes a new session with the sender seated as creator. The hub
// generates a code that is unique among live sessions.
type Create struct {
	ConnID    string
	Name      string
	Selection []string
	Outbox    chan types.ServerMessage
	Reply     chan CreateResult
}

type CreateResult struct {
	ID   string
	Code string
	Err  error
}

type Get struct {
	Code  string
	Reply chan *session.Session
}

type Remove struct {
	Code string
}

// Bind records a connection's session membership for O(1) disconnect
// handling. A connection holds at most one membership; rebinding replaces
// the previous one.
type Bind struct {
	ConnID string
	Code   string
}

type Disconnect struct {
	ConnID string
}

type Shutdown struct{}

func (Create) isHubMsg()     {}
func (Get) isHubMsg()        {}
func (Remove) isHubMsg()     {}
func (Bind) isHubMsg()       {}
func (Disconnect) isHubMsg() {}
func (Shutdown) isHubMsg()   {}

// Hub owns the code->session store and the connection registry. Like each
// session it is a single actor, so create, delete, and disconnect-driven
// cleanup never race.
type Hub struct {
	inbox    chan Msg
	sessions map[string]*session.Session
	conns    map[string]string // connection id -> session code
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan Msg, 64),
		sessions: make(map[string]*session.Session),
		conns:    make(map[string]string),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Create:
				h.handleCreate(msg)

			case Get:
				msg.Reply <- h.sessions[msg.Code] // may be nil

			case Remove:
				h.remove(msg.Code)

			case Bind:
				h.conns[msg.ConnID] = msg.Code

			case Disconnect:
				h.handleDisconnect(msg)

			case Shutdown:
				for _, sess := range h.sessions {
					sess.Inbox() <- session.Shutdown{}
				}
				clear(h.sessions)
				clear(h.conns)
				h.cancel()
			}
		}
	}
}

func (h *Hub) handleCreate(msg Create) {
	code, err := h.uniqueCode()
	if err != nil {
		msg.Reply <- CreateResult{Err: err}
		return
	}

	state, err := engine.NewSession(uuid.NewString(), code, engine.Command{
		ConnID:    msg.ConnID,
		Name:      msg.Name,
		Selection: msg.Selection,
	})
	if err != nil {
		msg.Reply <- CreateResult{Err: err}
		return
	}

	sess := session.New(h.ctx, h.log, state, msg.Outbox)
	h.sessions[code] = sess
	h.conns[msg.ConnID] = code

	h.log.Info("session created", zap.String("code", code))
	msg.Reply <- CreateResult{ID: state.ID, Code: code}
}

// handleDisconnect locates the connection's session, notifies the remaining
// member, and reclaims the session when the match never started. At most
// one session is affected.
func (h *Hub) handleDisconnect(msg Disconnect) {
	code, ok := h.conns[msg.ConnID]
	if !ok {
		return
	}
	delete(h.conns, msg.ConnID)

	sess := h.sessions[code]
	if sess == nil {
		return
	}

	reply := make(chan session.LeaveInfo, 1)
	sess.Inbox() <- session.Leave{ConnID: msg.ConnID, Reply: reply}
	info := <-reply

	if info.Abandoned {
		h.log.Info("reclaiming abandoned session", zap.String("code", code))
		h.remove(code)
	}
}

func (h *Hub) remove(code string) {
	sess := h.sessions[code]
	if sess == nil {
		return
	}
	sess.Inbox() <- session.Shutdown{}
	delete(h.sessions, code)
	for conn, c := range h.conns {
		if c == code {
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) uniqueCode() (string, error) {
	for {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.sessions[code]; !taken {
			return code, nil
		}
		h.log.Warn("collision on session code, regenerating")
	}
}

func generateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
