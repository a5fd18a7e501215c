package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/catalog"
	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/config"
	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/db"
	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/hub"
	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/publisher"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Invalid configuration: %v", err)
	}

	configureLogging(cfg.Log)
	logrus.Info("=== Game Catalog Service ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.NewGamesStore(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logrus.Fatalf("❌ Failed to open %s database: %v", cfg.Database.Driver, err)
	}
	defer store.Close()
	logrus.Infof("✓ Connected to %s database", cfg.Database.Driver)

	// Change events: live feed always, redis stream when configured
	feedHub := hub.NewHub()
	go feedHub.Run(ctx)

	events := publisher.Multi{feedHub}

	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logrus.Fatalf("❌ Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		events = append(events, publisher.NewStreamPublisher(redisClient, cfg.Redis.Stream))
		logrus.Infof("✓ Connected to Redis, publishing to stream %s", cfg.Redis.Stream)
	}

	importer := catalog.NewImporter(
		catalog.NewClient(cfg.Import.Timeout),
		store,
		cfg.Import.URLs,
		cfg.Import.Persist,
	)

	// Initialize handlers
	handler := handlers.NewHandler(store, feedHub)
	gamesHandler := handlers.NewGamesHandler(store, importer, events)
	feedHandler := handlers.NewFeedHandler(ctx, feedHub, cfg.Server.CORSOrigins)

	// populate can run for the whole fetch timeout
	requestTimeout := cfg.Import.Timeout + 10*time.Second

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logrus.StandardLogger()))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	handlers.Routes(r, gamesHandler, feedHandler)
	r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logrus.Infof("✓ Game Catalog listening on %s", cfg.Server.Port)
		logrus.Info("  Endpoints:")
		logrus.Info("    GET    /health")
		logrus.Info("    GET    /api/games")
		logrus.Info("    POST   /api/games")
		logrus.Info("    POST   /api/games/search")
		logrus.Info("    POST   /api/games/populate")
		logrus.Info("    GET    /api/games/feed (websocket)")
		logrus.Info("    PUT    /api/games/{id}")
		logrus.Info("    DELETE /api/games/{id}")

		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("❌ Server error: %v", err)
		}

	case sig := <-shutdown:
		logrus.Warnf("⚠️  Received signal: %v", sig)

		// stop the hub first so feed connections are closed before Shutdown waits
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("⚠️  Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				logrus.Errorf("❌ Could not stop server: %v", err)
			}
		}
	}

	logrus.Info("✓ Shutdown complete")
}

func configureLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// validated by config.Load
	level, _ := logrus.ParseLevel(cfg.Level)
	logrus.SetLevel(level)
}
