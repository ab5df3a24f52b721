package websocket

import (
	"context"
	"errors"

	cws "github.com/coder/websocket"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
)

// handleHello answers with a snapshot unless the client already shows the
// current revision.
func (that *Server) handleHello(ctx context.Context, sess *session, msg *clientMessage) error {
	return that.snapshot(ctx, sess, msg.Rev)
}

func (that *Server) handleResync(ctx context.Context, sess *session, _ *clientMessage) error {
	return that.snapshot(ctx, sess, nil)
}

func (that *Server) handlePing(ctx context.Context, sess *session, _ *clientMessage) error {
	return that.write(ctx, sess, serverMessage{Type: messagePong})
}

func (that *Server) snapshot(ctx context.Context, sess *session, known *int64) error {
	log := that.logger.With("method", "snapshot", "game_id", sess.gameID)

	game, err := that.games.GetGame(ctx, sess.gameID)
	if err != nil {
		if errors.Is(err, apperror.ErrGameNotFound) {
			if err = that.write(ctx, sess, serverMessage{Type: messageDeleted}); err != nil {
				return err
			}

			sess.conn.Close(cws.StatusNormalClosure, "game deleted")
			return errGone
		}

		log.Error("failed to get game", "error", err)
		return that.write(ctx, sess, serverMessage{Type: messageError, Message: "failed to load game"})
	}

	if known != nil && *known == game.Revision {
		if game.Revision > sess.sent {
			sess.sent = game.Revision
		}
		return nil
	}

	return that.sendState(ctx, sess, game)
}
