package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/backoffice-api/internal/api"
	"github.com/99minutos/backoffice-api/internal/core/ports"
	"github.com/99minutos/backoffice-api/internal/core/service"
	"github.com/99minutos/backoffice-api/internal/infrastructure/config"
	dbmongo "github.com/99minutos/backoffice-api/internal/infrastructure/db/mongo"
	dbredis "github.com/99minutos/backoffice-api/internal/infrastructure/db/redis"
	"github.com/99minutos/backoffice-api/internal/infrastructure/http/handlers"
	"github.com/99minutos/backoffice-api/internal/infrastructure/notify"
	"github.com/99minutos/backoffice-api/internal/infrastructure/queue"
	"github.com/99minutos/backoffice-api/internal/infrastructure/scheduler"
	"github.com/99minutos/backoffice-api/internal/infrastructure/storage"
	"github.com/99minutos/backoffice-api/pkg/logger"
)

const (
	serviceName     = "backoffice-api"
	shutdownTimeout = 10 * time.Second
	reminderTimeout = 2 * time.Minute
)

// @title        Back-office API
// @version      1.0
// @description  Client, task and document management for the back office.
// @BasePath     /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	// --- Database ---
	pool, err := dbmongo.NewPool(dbmongo.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		SocketTimeout:  cfg.Mongo.SocketTimeout,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
	}, logger.Component("mongo"))
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}

	users := dbmongo.NewUserRepository(pool.Database())
	tasks := dbmongo.NewTaskRepository(pool.Database())
	docs := dbmongo.NewDocumentRepository(pool.Database())

	// --- Notifications ---
	cache := dbredis.New(dbredis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err := cache.Ping(ctx); err != nil {
		// Dedup fails open while Redis is down; health reports it.
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
	}

	var sender ports.NotificationSender = notify.NewLogSender(logger.Component("notify"))
	if cfg.Notify.APIURL != "" {
		sender = notify.NewClient(nil, cfg.Notify.APIURL, cfg.Notify.APIKey, logger.Component("notify"))
	}
	dispatcher := queue.NewDispatcher(queue.Options{
		Workers:       cfg.Notify.Workers,
		RatePerSecond: cfg.Notify.RatePerSecond,
	}, sender, cache.Dedup(), logger.Component("dispatcher"))
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)

	// --- Storage ---
	registry, err := buildStorage(cfg)
	if err != nil {
		stopDispatch()
		return fmt.Errorf("storage: %w", err)
	}
	log.Info().Str("strategy", string(registry.Active().Strategy())).Msg("storage ready")

	// --- Services ---
	authService := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL)
	clientService := service.NewClientService(users, tasks, docs, registry, logger.Component("clients"))
	taskService := service.NewTaskService(tasks, users, docs, dispatcher, logger.Component("tasks"))
	documentService := service.NewDocumentService(docs, users, tasks, registry, dispatcher, cfg.Storage.MaxUploadBytes, logger.Component("documents"))
	reminderService := service.NewReminderService(tasks, users, dispatcher, cfg.Reminder.Window, logger.Component("reminders"))

	registerReadyHooks(pool, cfg, authService, users, tasks, docs, log)

	// First connection attempt; failure leaves the pool degraded and requests retry.
	if err := pool.Ensure(ctx); err != nil {
		log.Warn().Err(err).Msg("database not reachable at startup, will retry on demand")
	}

	// --- Reminders ---
	cronScheduler := scheduler.New(time.UTC, reminderTimeout, logger.Component("scheduler"))
	if cfg.Reminder.Schedule != "" {
		id, err := cronScheduler.Schedule("task_reminders", cfg.Reminder.Schedule, func(ctx context.Context) error {
			if err := pool.Ensure(ctx); err != nil {
				return err
			}
			_, err := reminderService.SendDueSoon(ctx, time.Now().UTC())
			return err
		})
		if err != nil {
			stopDispatch()
			return fmt.Errorf("schedule reminders: %w", err)
		}
		cronScheduler.Start()
		log.Info().Time("next_run", cronScheduler.Next(id)).Msg("reminder job scheduled")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Options{
		JWTSecret:      cfg.JWTSecret,
		Production:     cfg.IsProduction(),
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: documentService.MaxUploadBytes(),
		Logger:         logger.Component("http"),
	}, api.Dependencies{
		Database:  pool,
		Users:     users,
		Auth:      authService,
		Clients:   clientService,
		Tasks:     taskService,
		Documents: documentService,
		Health:    handlers.NewHealthHandler(serviceName, pool, cache),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr()).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	cronScheduler.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopDispatch()
	dispatcher.Wait()
	if err := pool.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if err := cache.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}

	log.Info().Msg("shutdown complete")
	return nil
}

// buildStorage registers every backend that can run with the current
// configuration and selects the configured one for new uploads.
func buildStorage(cfg *config.Config) (*storage.Registry, error) {
	disk, err := storage.NewDiskStorage(cfg.Storage.UploadDir)
	if err != nil {
		return nil, err
	}
	backends := []ports.FileStorage{disk, storage.NewMemoryStorage()}

	if cfg.Storage.CloudinaryConfigured() {
		cld, err := storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			CloudName: cfg.Storage.CloudinaryCloudName,
			APIKey:    cfg.Storage.CloudinaryAPIKey,
			APISecret: cfg.Storage.CloudinaryAPISecret,
			Folder:    cfg.Storage.CloudinaryFolder,
		})
		if err != nil {
			return nil, err
		}
		backends = append(backends, cld)
	}

	return storage.NewRegistry(cfg.StorageStrategy(), backends...)
}

// registerReadyHooks queues the work that needs a live database: indexes and
// the bootstrap admin account.
func registerReadyHooks(
	pool *dbmongo.Pool,
	cfg *config.Config,
	auth *service.AuthService,
	users *dbmongo.UserRepository,
	tasks *dbmongo.TaskRepository,
	docs *dbmongo.DocumentRepository,
	log zerolog.Logger,
) {
	pool.OnReady(func(ctx context.Context, _ *mongo.Database) error {
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		if err := tasks.EnsureIndexes(ctx); err != nil {
			return err
		}
		return docs.EnsureIndexes(ctx)
	})

	if cfg.Admin.Email == "" {
		return
	}
	pool.OnReady(func(ctx context.Context, _ *mongo.Database) error {
		created, err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("bootstrap admin created")
		}
		return nil
	})
}
