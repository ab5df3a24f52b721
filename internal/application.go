package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/torusgo-backend/internal/config"
	"github.com/rocketscienceinc/torusgo-backend/internal/fanout"
	"github.com/rocketscienceinc/torusgo-backend/internal/repository"
	"github.com/rocketscienceinc/torusgo-backend/internal/repository/storage"
	"github.com/rocketscienceinc/torusgo-backend/internal/service"
	"github.com/rocketscienceinc/torusgo-backend/internal/usecase"
	"github.com/rocketscienceinc/torusgo-backend/transport/rest"
	"github.com/rocketscienceinc/torusgo-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

type backend struct {
	games     repository.GameRepository
	actions   repository.ActionCache
	publisher fanout.Publisher
	close     func()
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	hub := fanout.NewHub(logger)

	store, err := openBackend(ctx, logger, conf, hub)
	if err != nil {
		return err
	}
	defer store.close()

	authService := service.NewAuthService(conf.JWTSecretKey)
	gameManager := usecase.NewGameManager(logger, store.games, store.actions, store.publisher, usecase.Options{
		DefaultSize:         conf.Game.DefaultSize,
		AnonymousSeatTTL:    conf.Game.AnonymousSeatTTL,
		AllowReopenFinished: conf.Game.AllowReopenFinished,
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameManager, authService)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager, authService, hub, websocket.Options{
			PingInterval:   conf.WebSocket.PingInterval,
			IdleTimeout:    conf.WebSocket.IdleTimeout,
			WriteTimeout:   conf.WebSocket.WriteTimeout,
			SendBuffer:     conf.WebSocket.SendBuffer,
			OriginPatterns: conf.WebSocket.OriginPatterns,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// openBackend picks the storage. With redis, events go through pub/sub so
// every instance's hub sees every commit; in memory the hub publishes itself.
func openBackend(ctx context.Context, logger *slog.Logger, conf *config.Config, hub *fanout.Hub) (*backend, error) {
	log := logger.With("component", "app")

	if conf.Storage == config.StorageMemory {
		log.Info("Using in-memory storage")

		return &backend{
			games:     repository.NewMemoryGameRepository(),
			actions:   repository.NewMemoryActionCache(conf.Game.ActionCacheSize),
			publisher: hub,
			close:     func() {},
		}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, storage.RedisOptions{
		Addr:     redisAddrString,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	broker := fanout.NewRedisBroker(logger, redisStorage, hub)
	brokerErrCh := make(chan error, 1)
	go func() {
		brokerErrCh <- broker.Run(ctx)
	}()

	select {
	case <-broker.Ready():
	case err = <-brokerErrCh:
		_ = redisStorage.Close()
		return nil, fmt.Errorf("could not start event broker: %w", err)
	case <-ctx.Done():
		_ = redisStorage.Close()
		return nil, ctx.Err()
	}

	go func() {
		if brokerErr := <-brokerErrCh; brokerErr != nil {
			log.Error("event broker stopped", "error", brokerErr)
		}
	}()

	log.Info("Using redis storage", "addr", redisAddrString)

	return &backend{
		games:     repository.NewGameRepository(redisStorage),
		actions:   repository.NewActionCache(redisStorage, conf.Game.ActionCacheSize),
		publisher: broker,
		close: func() {
			if closeErr := redisStorage.Close(); closeErr != nil {
				log.Error("could not close redis storage", "error", closeErr)
			}
		},
	}, nil
}
