package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/PepaPanda/uu-backend-project/internal/api"
	"github.com/PepaPanda/uu-backend-project/internal/auth"
	"github.com/PepaPanda/uu-backend-project/internal/events"
	"github.com/PepaPanda/uu-backend-project/internal/service"
	"github.com/PepaPanda/uu-backend-project/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Starts the HTTP server with the REST API and the websocket endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		st, err := openStore(connectCtx, cfg)
		cancel()
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(closeCtx); err != nil {
				logger.WithError(err).Warn("failed to close store")
			}
		}()

		rdb := openRedis(ctx)
		if rdb != nil {
			defer func() { _ = rdb.Close() }()
		}

		var lists *service.ListService
		hub := websocket.NewHub(websocket.AuthorizerFunc(func(ctx context.Context, userID, listID string) error {
			return lists.Authorize(ctx, userID, listID)
		}), logger, cfg.CORS.AllowedOrigins)
		go hub.Run(ctx)

		notifier := events.Multi{hub}
		if cfg.RabbitMQ.URL != "" {
			pub, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to rabbitmq: %w", err)
			}
			defer pub.Close()
			notifier = append(notifier, pub)
			logger.WithField("queue", cfg.RabbitMQ.Queue).Info("publishing events to rabbitmq")
		}

		tokens := auth.NewJWTManager(cfg.JWT)
		opts := service.Options{
			Store:              st,
			Log:                logger,
			Notifier:           notifier,
			RestoreInvitations: cfg.RestoreFailedAccepts,
		}
		lists = service.NewListService(opts)
		users := service.NewUserService(opts, tokens)

		router := api.SetupRouter(api.Deps{
			Config: cfg,
			Log:    logger,
			Users:  users,
			Lists:  lists,
			Tokens: tokens,
			Hub:    hub,
			Redis:  rdb,
		})

		srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
		errCh := make(chan error, 1)
		go func() {
			logger.Infof("server starting on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// Graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			return fmt.Errorf("listen: %w", err)
		}
		logger.Info("shutting down server")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		stop()
		logger.Info("server exited properly")
		return nil
	},
}

// openRedis returns nil when REDIS_ADDR is unset or unreachable, which turns
// rate limiting off.
func openRedis(ctx context.Context) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, rate limiting disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}
