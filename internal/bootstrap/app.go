package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/llm"
	"resume-wizard/internal/llm/gemini"
	"resume-wizard/internal/llm/openai"
	"resume-wizard/internal/services/health"
	"resume-wizard/internal/sessions"
	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/shared/server"
	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/shared/storage/db"
	"resume-wizard/internal/shared/storage/object"
	localstore "resume-wizard/internal/shared/storage/object/local"
	s3store "resume-wizard/internal/shared/storage/object/s3"
	"resume-wizard/internal/shared/telemetry"
	"resume-wizard/internal/wizard"
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Redis         *redis.Client
	Health        *health.Service
	SessionStore  sessions.Store
	LLM           llm.Client
	Orchestrator  *generation.Orchestrator
	WizardService *wizard.Service
	WizardHandler *wizard.Handler

	closers     []io.Closer
	stopJanitor context.CancelFunc
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.SessionStore) == "" {
		cfg.SessionStore = "memory"
	}
	ctx := context.Background()

	app := &App{Config: cfg, Health: health.NewService(cfg.SaveTimeout)}

	store, err := app.buildSessionStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.SessionStore = store

	client, err := app.buildLLM(ctx)
	if err != nil {
		if !isDevLike(cfg.Env) {
			app.Close()
			return nil, err
		}
		telemetry.Warn("bootstrap.llm_unavailable", map[string]any{"provider": cfg.LLMProvider, "error": err})
		client = llm.PlaceholderClient{}
	}
	app.LLM = client

	app.Orchestrator = generation.NewOrchestrator(client)
	app.WizardService = wizard.NewService(store, app.Orchestrator, wizard.Options{
		SaveTimeout: cfg.SaveTimeout,
		LoadTimeout: cfg.SaveTimeout,
		IdleTTL:     cfg.SessionIdleTTL,
	})
	janitorCtx, stop := context.WithCancel(context.Background())
	app.stopJanitor = stop
	go app.WizardService.RunJanitor(janitorCtx, 0)

	generateLimit := middleware.RateLimit(middleware.RateLimitRule{
		Rate:  cfg.GenerateRate,
		Burst: cfg.GenerateBurst,
	}, middleware.NewRateLimiter(nil))
	startLimit := middleware.RateLimitBy(middleware.RateLimitRule{
		Rate:  cfg.SessionStartRate,
		Burst: cfg.SessionStartBurst,
	}, middleware.NewRateLimiter(nil), middleware.ClientIPKey)
	app.WizardHandler = wizard.NewHandler(app.WizardService, app.Orchestrator, generateLimit, startLimit)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Health:        app.Health,
		WizardHandler: app.WizardHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":           cfg.Env,
		"session_store": cfg.SessionStore,
		"llm_provider":  cfg.LLMProvider,
	})
	return app, nil
}

// Shutdown stops idle eviction, drains pending checkpoints and releases connections.
func (a *App) Shutdown() {
	if a.stopJanitor != nil {
		a.stopJanitor()
	}
	if a.WizardService != nil {
		a.WizardService.Checkpoints().Wait()
	}
	a.Close()
}

// Close releases connections without waiting for checkpoints.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			telemetry.Warn("bootstrap.close_failed", map[string]any{"error": err})
		}
	}
	a.closers = nil
}

func (a *App) buildSessionStore(ctx context.Context) (sessions.Store, error) {
	cfg := a.Config
	switch cfg.SessionStore {
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("SESSION_STORE=postgres requires DATABASE_URL")
		}
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			if isDevLike(cfg.Env) {
				telemetry.Warn("bootstrap.database_unavailable", map[string]any{"error": err})
				return sessions.NewMemoryStore(), nil
			}
			return nil, err
		}
		a.DB = sqlDB
		a.closers = append(a.closers, sqlDB)
		a.Health.Register("database", sqlDB.PingContext)
		if err := db.RunMigrations(ctx, sqlDB, db.DriverPostgres); err != nil {
			return nil, err
		}
		return &sessions.PGStore{DB: sqlDB}, nil

	case "sqlite":
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath, db.DefaultSQLiteOptions())
		if err != nil {
			return nil, err
		}
		a.DB = sqlDB
		a.closers = append(a.closers, sqlDB)
		a.Health.Register("database", sqlDB.PingContext)
		if err := db.RunMigrations(ctx, sqlDB, db.DriverSQLite); err != nil {
			return nil, err
		}
		return &sessions.SQLiteStore{DB: sqlDB}, nil

	case "redis":
		client := sessions.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.Redis = client
		a.closers = append(a.closers, client)
		a.Health.Register("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
		if err := client.Ping(ctx).Err(); err != nil {
			// Saves and loads surface ErrUnavailable until Redis is reachable.
			telemetry.Warn("bootstrap.redis_unreachable", map[string]any{"addr": cfg.RedisAddr, "error": err})
		}
		return &sessions.RedisStore{Client: client, TTL: cfg.SessionTTL}, nil

	case "object":
		objects, err := buildObjectStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &sessions.ObjectStore{Objects: objects}, nil

	default:
		return sessions.NewMemoryStore(), nil
	}
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (a *App) buildLLM(ctx context.Context) (llm.Client, error) {
	cfg := a.Config
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		return client, nil
	default:
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
