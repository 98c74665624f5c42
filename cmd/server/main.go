package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playpool/eightball/internal/api"
	"github.com/playpool/eightball/internal/config"
	"github.com/playpool/eightball/internal/database"
	"github.com/playpool/eightball/internal/game"
	"github.com/playpool/eightball/internal/logger"
	"github.com/playpool/eightball/internal/metrics"
	"github.com/playpool/eightball/internal/migrations"
	"github.com/playpool/eightball/internal/redis"
	"github.com/playpool/eightball/internal/ws"
)

func main() {
	cfg := config.Load(".")
	logger.Init(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database (optional: without it the shot log is skipped)
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			logger.Log.Info("running DB migrations on startup")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
				logger.Log.Fatalw("failed to run migrations", "error", err)
			}
		}
		var err error
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatalw("failed to connect to database", "error", err)
		}
		defer db.Close()
	} else {
		logger.Log.Warn("[DB] DATABASE_URL not set; match results will not be stored")
	}

	// Redis (optional: snapshots and cross-instance events)
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()
	} else {
		logger.Log.Warn("[REDIS] REDIS_URL not set; snapshots and game events disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	origin := uuid.NewString()

	hub := ws.NewHub(m)
	store := game.NewStore(db, rdb, time.Duration(cfg.SnapshotTTLMinutes)*time.Minute, origin)
	manager := game.NewManager(ctx, hub, store, m, game.ManagerConfig{
		TickInterval: cfg.TickInterval(),
		MaxMatches:   cfg.MaxMatches,
	})
	hub.SetDirectory(manager)
	go hub.Run(ctx)

	ws.StartGameEventSubscriber(ctx, rdb, hub, origin)
	game.StartIdleWorker(ctx, manager,
		time.Duration(cfg.IdleWorkerPollSeconds)*time.Second,
		time.Duration(cfg.IdleMatchMinutes)*time.Minute)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, manager, hub, cfg)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		logger.Log.Infow("starting eightball server", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("graceful shutdown failed", "error", err)
	}
}
