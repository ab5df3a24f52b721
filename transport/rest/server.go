package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/internal/usecase"
	"github.com/rocketscienceinc/torusgo-backend/pkg/handlers"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	Apply(ctx context.Context, req usecase.ActionRequest) (*usecase.Response, error)
	CreateGame(ctx context.Context, size int, name string) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	ListGames(ctx context.Context) ([]entity.Summary, error)
	DeleteGame(ctx context.Context, id string) error
	Render(game *entity.Game, viewerID string) *entity.PublicState
}

type authService interface {
	Identify(w http.ResponseWriter, r *http.Request) (entity.Actor, error)
}

type Server struct {
	logger *slog.Logger
	games  gameUseCase
	auth   authService
}

func New(logger *slog.Logger, games gameUseCase, auth authService) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		games:  games,
		auth:   auth,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", handlers.PingHandler)
	mux.HandleFunc("GET /api/health", that.health)
	mux.HandleFunc("GET /api/games", that.listGames)
	mux.HandleFunc("POST /api/game/new", that.newGame)
	mux.HandleFunc("GET /api/game/{id}", that.getGame)
	mux.HandleFunc("DELETE /api/game/{id}", that.deleteGame)
	mux.HandleFunc("POST /api/move", that.move)

	return mux
}

// Start serves until ctx is done, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
