package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finsphere/internal/agents"
	"finsphere/internal/amqp"
	"finsphere/internal/config"
	apphttp "finsphere/internal/http"
	"finsphere/internal/log"
	"finsphere/internal/orchestrator"
	"finsphere/internal/rules"
	"finsphere/internal/scheduler"
	"finsphere/internal/storage"
	"finsphere/internal/storage/memory"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentApp})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	agentRules, err := rules.Load(cfg.RulesFile, time.Now())
	if err != nil {
		return err
	}

	var publisher orchestrator.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	executor := orchestrator.NewExecutor(publisher, logger)
	orch := orchestrator.New(store, agents.Default(agentRules, time.Now), executor, logger)

	sched := scheduler.New(logger)
	if cfg.CycleSchedule != "" {
		if err := sched.AddJob(cfg.CycleSchedule, scheduler.NewCycleJob(orch)); err != nil {
			return err
		}
		logger.Info("Agent cycle scheduled", "schedule", cfg.CycleSchedule)
	}

	srv := apphttp.New(apphttp.Config{
		Port:         cfg.Port,
		Orchestrator: orch,
		Store:        store,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := orch.Wait(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	logger.Info("Starting finsphere server", "port", cfg.Port, "backend", cfg.DataBackend)
	return g.Wait()
}

func openStore(cfg *config.Config, logger *log.Logger) (storage.TransactionStore, func(), error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		store, err := memory.NewFromFile(cfg.SeedFile, time.Now())
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile, log.FieldCount, store.Len())
		return store, func() {}, nil
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close SQLite repository", log.FieldError, err)
			}
		}, nil
	}
}
