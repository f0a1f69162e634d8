package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"legalassist-backend/internal/assistant"
	"legalassist-backend/internal/attachments"
	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/documents"
	"legalassist-backend/internal/i18n"
	"legalassist-backend/internal/preferences"
	"legalassist-backend/internal/queue"
	"legalassist-backend/internal/services/health"
	"legalassist-backend/internal/shared/auth"
	"legalassist-backend/internal/shared/config"
	"legalassist-backend/internal/shared/server"
	"legalassist-backend/internal/shared/storage/db"
	"legalassist-backend/internal/shared/storage/object"
	localstore "legalassist-backend/internal/shared/storage/object/local"
	s3store "legalassist-backend/internal/shared/storage/object/s3"
	"legalassist-backend/internal/shared/telemetry"
	"legalassist-backend/internal/usage"
)

// App holds shared dependencies and the HTTP router built from them.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Redis    *redis.Client
	Store    object.Store
	Queue    queue.Client
	Catalog  *i18n.Catalog
	Verifier *auth.Verifier

	Assistant   *assistant.Client
	Attachments *attachments.Service
	Documents   *documents.Service
	Usage       *usage.Service
	Preferences *preferences.Service
	Registry    *conversation.Registry
	Health      *health.Service
}

// Build prepares every dependency and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg, Health: health.NewService()}

	catalog, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	app.Catalog = catalog

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}
	app.Verifier = verifier

	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.DB != nil {
		app.Health.Register("database", app.DB.PingContext)
	}

	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Redis != nil {
		rdb := app.Redis
		app.Health.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}

	app.Assistant, err = assistant.NewClient(assistant.Options{
		BaseURL: cfg.AssistantBaseURL,
		Token:   cfg.AssistantToken,
		Timeout: cfg.AssistantTimeout,
	})
	if err != nil {
		return nil, err
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              cfg,
		Verifier:            app.Verifier,
		Health:              app.Health,
		ConversationHandler: conversation.NewHandler(app.Registry, app.Attachments),
		DocumentHandler:     documents.NewHandler(app.Documents),
		UsageHandler:        usage.NewHandler(app.Usage),
		PreferencesHandler:  preferences.NewHandler(app.Preferences),
	})

	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

func buildServices(app *App) {
	var docRepo documents.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		app.Usage = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		docRepo = documents.NewMemoryRepo()
		app.Usage = usage.NewService()
	}
	app.Documents = &documents.Service{Repo: docRepo}

	var prefsRepo preferences.Repo
	if app.Redis != nil {
		prefsRepo = preferences.NewRedisRepo(app.Redis)
	} else {
		prefsRepo = preferences.NewMemoryRepo()
	}
	app.Preferences = &preferences.Service{
		Repo:            prefsRepo,
		Languages:       app.Catalog,
		DefaultLanguage: app.Config.DefaultLanguage,
	}

	app.Attachments = &attachments.Service{
		Store:    app.Store,
		Analyzer: app.Assistant,
	}

	var feedback conversation.FeedbackSink = app.Assistant
	if app.Queue != nil {
		feedback = &queue.FeedbackSink{Client: app.Queue}
	}

	app.Registry = conversation.NewRegistry(conversation.Deps{
		Messenger: app.Assistant,
		Schemas:   app.Assistant,
		Designs:   app.Assistant,
		Generator: app.Assistant,
		Analyzer:  app.Attachments,
		Feedback:  feedback,
		Documents: app.Documents,
		Usage:     app.Usage,
		Catalog:   app.Catalog,
	}, app.Preferences, app.Config.DefaultLanguage)
	if app.Config.IdleTTL > 0 {
		app.Registry.IdleTTL = app.Config.IdleTTL
	}
	app.Preferences.OnLanguageChange = app.Registry.SetLanguage
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_missing", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_connect_failed", map[string]any{"err": err.Error(), "fallback": "memory"})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"err": err.Error(), "fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.FeedbackQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.FeedbackQueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
