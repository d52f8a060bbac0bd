// Package bootstrap assembles the stores, background workers and use cases
// shared by the HTTP server and the focus CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/focus/api/handler"
	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/internal/config"
	"github.com/fastygo/focus/internal/infrastructure/buffer"
	"github.com/fastygo/focus/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/focus/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/focus/internal/infrastructure/redis"
	"github.com/fastygo/focus/internal/middleware"
	"github.com/fastygo/focus/internal/router"
	"github.com/fastygo/focus/internal/services"
	"github.com/fastygo/focus/internal/services/lifecycle"
	"github.com/fastygo/focus/pkg/httpcontext"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/repository/boltdb"
	"github.com/fastygo/focus/repository/postgres"
	redisRepo "github.com/fastygo/focus/repository/redis"
	"github.com/fastygo/focus/repository/sqlite"
	authUC "github.com/fastygo/focus/usecase/auth"
	"github.com/fastygo/focus/usecase/gate"
	profileUC "github.com/fastygo/focus/usecase/profile"
	proofUC "github.com/fastygo/focus/usecase/proof"
	sessionUC "github.com/fastygo/focus/usecase/session"
	streakUC "github.com/fastygo/focus/usecase/streak"
	taskUC "github.com/fastygo/focus/usecase/task"
)

// Options tune what New starts besides the stores.
type Options struct {
	// Background starts the connection monitor loop and the buffer drain
	// schedule. One-shot processes leave it off and drain once on Close.
	Background bool
}

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Gate      *gate.Gate
	Auth      *authUC.UseCase
	Monitor   *monitor.Monitor
	Processor *services.BufferProcessor
	Lifecycle *lifecycle.Manager

	adapter *httpcontext.Adapter
}

type records struct {
	users        repository.UserRepository
	tasks        repository.TaskRepository
	sessions     repository.FocusSessionRepository
	streaks      repository.StreakRepository
	authSessions repository.AuthSessionRepository
	probes       []monitor.Probe
}

// New opens every store named by cfg and wires the core behind the gate.
// On failure, whatever was opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (app *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, logger)
	defer func() {
		if err != nil {
			_ = manager.Shutdown(context.Background())
		}
	}()

	recs, err := openRecords(ctx, cfg, manager, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := boltdb.OpenBlobStore(cfg.Blob.Path)
	if err != nil {
		return nil, storeError("open blob store", err)
	}
	manager.RegisterCloser("blob_store", blobs)

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "")
	if err != nil {
		return nil, storeError("open buffer store", err)
	}
	manager.RegisterCloser("buffer", bufferStore)

	probes := append(recs.probes, monitor.PingProbe("blob_store", false, blobs.Ping))
	mon := monitor.New(probes, bufferStore, cfg.Context.MonitorInterval, logger)
	if opts.Background {
		mon.Start()
		manager.Register("monitor", func(context.Context) error {
			mon.Stop()
			return nil
		})
	} else {
		mon.Refresh(ctx)
	}

	streaks := streakUC.New(recs.sessions, recs.streaks, nil, cfg.Streak.Location, logger)
	processor := services.NewBufferProcessor(
		bufferStore,
		mon,
		streaks,
		blobs,
		logger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			RetryDelay: cfg.Buffer.RetryDelay,
			Retention:  cfg.Buffer.Retention(),
		},
	)
	if opts.Background {
		processor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			processor.Stop(ctx)
			return nil
		})
	} else {
		manager.Register("buffer_drain", func(ctx context.Context) error {
			if !mon.IsOnline() {
				return nil
			}
			return processor.Drain(ctx)
		})
	}
	bridge := services.NewBufferBridge(processor)

	auth := authUC.New(recs.users, recs.authSessions, recs.streaks, authUC.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	}, nil, logger)

	g := gate.New(auth, logger)
	gate.RegisterCore(g, gate.Core{
		Tasks:    taskUC.New(recs.tasks, nil, logger),
		Sessions: sessionUC.New(recs.sessions, recs.tasks, bridge, nil, logger),
		Proofs:   proofUC.New(recs.sessions, blobs, bridge, nil, logger),
		Streaks:  streaks,
		Profiles: profileUC.New(recs.users, logger),
		Auth:     auth,
	})

	logger.Info("application wired",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("session_store", cfg.Storage.SessionStore),
		zap.Bool("online", mon.IsOnline()))
	logger.Debug("gate operations",
		zap.Strings("commands", g.Commands()),
		zap.Strings("queries", g.Queries()))

	return &App{
		Config:    cfg,
		Logger:    logger,
		Gate:      g,
		Auth:      auth,
		Monitor:   mon,
		Processor: processor,
		Lifecycle: manager,
		adapter:   httpcontext.NewAdapter(cfg.Context.RequestTimeout),
	}, nil
}

// HTTPHandler builds the routed API.
func (a *App) HTTPHandler() fasthttp.RequestHandler {
	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(a.Auth, a.Gate, a.adapter, a.Logger),
		Profile: apiHandler.NewProfileHandler(a.Gate, a.adapter, a.Logger),
		Task:    apiHandler.NewTaskHandler(a.Gate, a.adapter, a.Logger),
		Session: apiHandler.NewSessionHandler(a.Gate, a.adapter, a.Logger),
		Proof:   apiHandler.NewProofHandler(a.Gate, a.adapter, a.Logger),
		Streak:  apiHandler.NewStreakHandler(a.Gate, a.adapter, a.Logger),
		Health:  apiHandler.NewHealthHandler(a.Monitor, a.adapter, a.Logger),
	}
	authMiddleware := middleware.JWTAuth(a.Gate, a.Config.Context.RequestTimeout, a.Logger)
	return router.New(handlers, authMiddleware).Handler
}

// Close stops background work and releases every store.
func (a *App) Close(ctx context.Context) error {
	return a.Lifecycle.Shutdown(ctx)
}

// storeError marks a bbolt file held by another process as unavailable.
// Anything else is a setup failure that retrying will not fix.
func storeError(op string, err error) error {
	if errors.Is(err, bolt.ErrTimeout) {
		return domain.Unavailable(op+": file is locked by another process", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func openRecords(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (*records, error) {
	var recs records

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Migrations.Enabled {
			if err := pgInfra.RunMigrations(cfg, logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, domain.Unavailable("connect postgres", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		})
		recs.users = postgres.NewUserRepository(pool)
		recs.tasks = postgres.NewTaskRepository(pool)
		recs.sessions = postgres.NewSessionRepository(pool)
		recs.streaks = postgres.NewStreakRepository(pool)
		recs.probes = append(recs.probes, monitor.PostgresProbe(pool))

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		manager.RegisterCloser("sqlite", db)
		recs.users = sqlite.NewUserRepository(db)
		recs.tasks = sqlite.NewTaskRepository(db)
		recs.sessions = sqlite.NewSessionRepository(db)
		recs.streaks = sqlite.NewStreakRepository(db)
		recs.probes = append(recs.probes, monitor.PingProbe("sqlite", true, db.Ping))
		if cfg.Storage.SessionStore == config.SessionStoreSQLite {
			recs.authSessions = sqlite.NewAuthSessionRepository(db, cfg.JWT.TTL)
		}

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.SessionStore == config.SessionStoreRedis {
		client, err := redisInfra.NewClient(cfg.Redis, cfg.Context.RequestTimeout)
		if err != nil {
			return nil, domain.Unavailable("connect redis", err)
		}
		manager.RegisterCloser("redis", client)
		recs.authSessions = redisRepo.NewAuthSessionRepository(client, cfg.JWT.TTL)
		recs.probes = append(recs.probes, monitor.RedisProbe(client))
	}

	return &recs, nil
}
