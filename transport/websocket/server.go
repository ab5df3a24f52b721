package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	cws "github.com/coder/websocket"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/internal/fanout"
)

const (
	defaultPingInterval = 25 * time.Second
	defaultIdleTimeout  = 70 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultSendBuffer   = 32

	readLimit       = 4 << 10
	shutdownTimeout = 5 * time.Second
)

type gameUseCase interface {
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	Render(game *entity.Game, viewerID string) *entity.PublicState
}

type authService interface {
	Identify(w http.ResponseWriter, r *http.Request) (entity.Actor, error)
}

type hub interface {
	Subscribe(gameID string, bufferSize int) *fanout.Subscription
	Unsubscribe(sub *fanout.Subscription)
}

type Options struct {
	PingInterval time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
	// OriginPatterns lists extra hosts allowed to open cross origin sockets.
	OriginPatterns []string
}

type Server struct {
	logger *slog.Logger
	games  gameUseCase
	auth   authService
	hub    hub
	opts   Options

	handlers map[string]func(ctx context.Context, session *session, msg *clientMessage) error
}

func New(logger *slog.Logger, games gameUseCase, auth authService, hub hub, opts Options) *Server {
	if opts.PingInterval == 0 {
		opts.PingInterval = defaultPingInterval
	}

	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	if opts.SendBuffer == 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	server := &Server{
		logger: logger.With("component", "websocket"),
		games:  games,
		auth:   auth,
		hub:    hub,
		opts:   opts,

		handlers: make(map[string]func(context.Context, *session, *clientMessage) error),
	}

	server.handlers[messageHello] = server.handleHello
	server.handlers[messageResync] = server.handleResync
	server.handlers[messagePing] = server.handlePing

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", that.upgradeToWebSocket)

	return mux
}

// Start serves until ctx is done. Open sockets see their request context
// cancelled on shutdown.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket resolves the viewer and the game before the upgrade so
// that failures are plain HTTP errors.
func (that *Server) upgradeToWebSocket(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		http.Error(w, "gameId is required", http.StatusBadRequest)
		return
	}

	actor, err := that.auth.Identify(w, r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err = that.games.GetGame(r.Context(), gameID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperror.ErrGameNotFound) {
			status = http.StatusNotFound
		} else {
			log.Error("failed to get game", "game_id", gameID, "error", err)
		}

		http.Error(w, http.StatusText(status), status)
		return
	}

	// subscribe before the upgrade so no commit after the client's hello is missed
	sub := that.hub.Subscribe(gameID, that.opts.SendBuffer)
	defer that.hub.Unsubscribe(sub)

	conn, err := cws.Accept(w, r, &cws.AcceptOptions{OriginPatterns: that.opts.OriginPatterns})
	if err != nil {
		log.Error("failed to accept websocket", "error", err)
		return
	}
	defer conn.CloseNow()

	conn.SetReadLimit(readLimit)

	log = log.With("game_id", gameID, "actor_id", actor.ID)
	log.Debug("websocket connection established")

	sess := &session{
		conn:     conn,
		sub:      sub,
		actor:    actor,
		gameID:   gameID,
		sent:     -1,
		lastSeen: time.Now(),
	}

	if err = that.serve(r.Context(), sess); err != nil {
		log.Debug("websocket connection closed", "error", err)
	}
}
