package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"quizbot/internal/config"
	"quizbot/internal/database"
	"quizbot/internal/leaderboard"
	"quizbot/internal/logger"
	"quizbot/internal/quiz"
	"quizbot/internal/session"
	"quizbot/internal/telegram"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("quizbot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg); err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	catalog, err := quiz.LoadFile(cfg.Quiz.CatalogPath)
	if err != nil {
		// Malformed catalog must not serve traffic.
		return fmt.Errorf("catalog load failed: %w", err)
	}

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("leaderboard init failed: %w", err)
	}
	defer cleanup()

	machine := session.NewMachine(catalog, store, session.NewRegistry())

	bot, err := telegram.New(cfg, machine, store)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Component("app").Info("app ready",
		slog.String("event", "ready"),
		slog.String("backend", cfg.Leaderboard.Backend),
	)
	err = bot.Run(ctx)

	logger.Component("app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}

func buildStore(cfg *config.Config) (leaderboard.Store, func(), error) {
	switch cfg.Leaderboard.Backend {
	case config.BackendPostgres:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return leaderboard.NewPostgres(db), func() { _ = db.Close() }, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return leaderboard.NewRedis(client), func() { _ = client.Close() }, nil

	default:
		logger.Store.Warn("memory backend selected, scores are lost on restart",
			slog.String("event", "store.backend"),
		)
		return leaderboard.NewMemory(), func() {}, nil
	}
}
