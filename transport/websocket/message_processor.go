package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cws "github.com/coder/websocket"

	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/internal/fanout"
	"github.com/rocketscienceinc/torusgo-backend/internal/usecase"
)

const (
	messageHello   = "hello"
	messageResync  = "resync"
	messagePing    = "ping"
	messagePong    = "pong"
	messageState   = "state"
	messageError   = "error"
	messageDeleted = "deleted"
)

var (
	errStalled = errors.New("subscriber stalled")
	errIdle    = errors.New("idle timeout")
	errGone    = errors.New("game deleted")
)

// clientMessage is what a client may send. Rev is the revision the client
// currently shows.
type clientMessage struct {
	Type string `json:"type"`
	Rev  *int64 `json:"rev,omitempty"`
}

type serverMessage struct {
	Version int                 `json:"version"`
	Type    string              `json:"type"`
	State   *entity.PublicState `json:"state,omitempty"`
	Message string              `json:"message,omitempty"`
}

type session struct {
	conn   *cws.Conn
	sub    *fanout.Subscription
	actor  entity.Actor
	gameID string

	// sent is the newest revision written to this socket. Only the serve
	// loop touches it.
	sent     int64
	lastSeen time.Time
}

// serve owns every write to the socket. A reader goroutine feeds client
// messages in, and the loop multiplexes them with hub events and pings.
func (that *Server) serve(ctx context.Context, sess *session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, data, err := sess.conn.Read(ctx)
			if err != nil {
				readErr <- err
				return
			}

			select {
			case incoming <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(that.opts.PingInterval)
	defer ticker.Stop()

	// pings run beside the loop because a pong is only read while the
	// reader goroutine sits in Read
	pongs := make(chan error, 1)
	pinging := false

	for {
		select {
		case <-ctx.Done():
			sess.conn.Close(cws.StatusGoingAway, "server shutting down")
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("failed to read message: %w", err)
		case data := <-incoming:
			sess.lastSeen = time.Now()

			if err := that.processMessage(ctx, sess, data); err != nil {
				return err
			}
		case event, ok := <-sess.sub.Events():
			if !ok {
				// the hub dropped us for falling behind
				_ = that.write(ctx, sess, serverMessage{Type: messageError, Message: "Subscriber stalled, resync"})
				sess.conn.Close(cws.StatusTryAgainLater, "stalled")
				return errStalled
			}

			if err := that.deliver(ctx, sess, event); err != nil {
				return err
			}
		case err := <-pongs:
			pinging = false
			if err != nil {
				return fmt.Errorf("failed to ping: %w", err)
			}
			sess.lastSeen = time.Now()
		case <-ticker.C:
			if time.Since(sess.lastSeen) > that.opts.IdleTimeout {
				sess.conn.Close(cws.StatusPolicyViolation, "idle timeout")
				return errIdle
			}

			if pinging {
				continue
			}
			pinging = true

			go func() {
				pingCtx, pingCancel := context.WithTimeout(ctx, that.opts.WriteTimeout)
				defer pingCancel()

				pongs <- sess.conn.Ping(pingCtx)
			}()
		}
	}
}

// deliver writes one hub event. A deleted game ends the session with errGone.
func (that *Server) deliver(ctx context.Context, sess *session, event fanout.Event) error {
	switch event.Type {
	case fanout.EventState:
		if event.Game == nil || event.Game.Revision <= sess.sent {
			return nil
		}

		return that.sendState(ctx, sess, event.Game)
	case fanout.EventDeleted:
		if err := that.write(ctx, sess, serverMessage{Type: messageDeleted}); err != nil {
			return err
		}

		sess.conn.Close(cws.StatusNormalClosure, "game deleted")
		return errGone
	case fanout.EventError:
		return that.write(ctx, sess, serverMessage{Type: messageError, Message: event.Message})
	default:
		return nil
	}
}

func (that *Server) processMessage(ctx context.Context, sess *session, data []byte) error {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return that.write(ctx, sess, serverMessage{Type: messageError, Message: "malformed message"})
	}

	handler, ok := that.handlers[msg.Type]
	if !ok {
		return that.write(ctx, sess, serverMessage{Type: messageError, Message: fmt.Sprintf("unknown message type %q", msg.Type)})
	}

	return handler(ctx, sess, &msg)
}

func (that *Server) sendState(ctx context.Context, sess *session, game *entity.Game) error {
	if err := that.write(ctx, sess, serverMessage{Type: messageState, State: that.games.Render(game, sess.actor.ID)}); err != nil {
		return err
	}

	if game.Revision > sess.sent {
		sess.sent = game.Revision
	}

	return nil
}

func (that *Server) write(ctx context.Context, sess *session, msg serverMessage) error {
	msg.Version = usecase.SchemaVersion

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, that.opts.WriteTimeout)
	defer cancel()

	if err = sess.conn.Write(ctx, cws.MessageText, payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
