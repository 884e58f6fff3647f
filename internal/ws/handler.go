package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/engine"
	"github.com/sphera-labs/sphera-backend/internal/hub"
	"github.com/sphera-labs/sphera-backend/internal/session"
	"github.com/sphera-labs/sphera-backend/internal/types"
)

var errNotFound = errors.New("Game not found")
var errFull = errors.New("Game is full")
var errInvalidData = errors.New("Invalid game data")
var errBadPayload = errors.New("Invalid message")

// wireError maps engine sentinels onto the error strings clients key off.
func wireError(err error) error {
	switch {
	case errors.Is(err, engine.ErrSessionFull):
		return errFull
	case errors.Is(err, engine.ErrInvalidInput):
		return errInvalidData
	default:
		return err
	}
}

// Handler upgrades the connection and runs the session protocol until the
// client goes away. Every connection gets one outbox channel; the writer
// goroutine is the only thing that touches the wire for writes.
func Handler(h *hub.Hub, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, 8)
		log := log.With(zap.String("conn", connID))
		log.Info("player connected")

		defer func() {
			h.Inbox() <- hub.Disconnect{ConnID: connID}
			log.Info("player disconnected")
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go writer(writeCtx, conn, out)

		c := client{hub: h, log: log, connID: connID, out: out}
		for {
			// No read deadline: a player legitimately idles while the
			// opponent thinks.
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.reply(types.ErrorMessage(errBadPayload))
				continue
			}
			c.dispatch(cm)
		}
	}
}

func writer(ctx context.Context, conn *websocket.Conn, out <-chan types.ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-out:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			_ = conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
		}
	}
}

type client struct {
	hub    *hub.Hub
	log    *zap.Logger
	connID string
	out    chan types.ServerMessage
}

func (c client) dispatch(cm types.ClientMessage) {
	switch cm.Type {
	case types.MsgCreateSession:
		c.createSession(cm)
	case types.MsgJoinSession:
		c.joinSession(cm)
	case types.MsgSubmitReady:
		c.submitReady(cm)
	case types.MsgSubmitChoice:
		c.submitChoice(cm)
	default:
		c.reply(types.ErrorMessage(errBadPayload))
	}
}

func (c client) createSession(cm types.ClientMessage) {
	reply := make(chan hub.CreateResult, 1)
	c.hub.Inbox() <- hub.Create{
		ConnID:    c.connID,
		Name:      cm.PlayerName,
		Selection: cm.Selection,
		Outbox:    c.out,
		Reply:     reply,
	}
	res := <-reply
	if res.Err != nil {
		c.reply(types.ErrorMessage(wireError(res.Err)))
		return
	}
	c.reply(types.ServerMessage{
		Type:        types.MsgSessionCreated,
		SessionID:   res.ID,
		SessionCode: res.Code,
	})
}

func (c client) joinSession(cm types.ClientMessage) {
	sess := c.lookup(cm.SessionCode)
	if sess == nil {
		c.reply(types.ErrorMessage(errNotFound))
		return
	}

	joined := make(chan error, 1)
	sess.Inbox() <- session.Join{
		ConnID:    c.connID,
		Name:      cm.PlayerName,
		Selection: cm.Selection,
		Outbox:    c.out,
		Reply:     joined,
	}
	if err := <-joined; err != nil {
		c.reply(types.ErrorMessage(wireError(err)))
		return
	}
	c.hub.Inbox() <- hub.Bind{ConnID: c.connID, Code: cm.SessionCode}
}

func (c client) submitReady(cm types.ClientMessage) {
	sess := c.lookup(cm.SessionCode)
	if sess == nil {
		return
	}
	sess.Inbox() <- session.Ready{ConnID: c.connID, Selection: cm.Selection}
}

func (c client) submitChoice(cm types.ClientMessage) {
	sess := c.lookup(cm.SessionCode)
	if sess == nil {
		return
	}
	sess.Inbox() <- session.Pick{
		ConnID:    c.connID,
		CardID:    cm.CardID,
		Attribute: cm.Attribute,
		Value:     cm.Value,
	}
}

func (c client) lookup(code string) *session.Session {
	reply := make(chan *session.Session, 1)
	c.hub.Inbox() <- hub.Get{Code: code, Reply: reply}
	return <-reply
}

// reply queues a direct response on this connection's own outbox so writes
// never interleave with session broadcasts.
func (c client) reply(msg types.ServerMessage) {
	select {
	case c.out <- msg:
	default:
		c.log.Warn("outbox full, dropping reply", zap.String("type", msg.Type))
	}
}
