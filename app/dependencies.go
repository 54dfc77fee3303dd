package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/upb/cognate/config"
	"github.com/upb/cognate/internal/observability"
	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/models"
	"github.com/upb/cognate/repositories"
	"github.com/upb/cognate/repositories/memory"
	"github.com/upb/cognate/repositories/postgres"
	"github.com/upb/cognate/services/attachments"
	"github.com/upb/cognate/services/catalog"
	"github.com/upb/cognate/services/credentials"
	"github.com/upb/cognate/services/dispatch"
	"github.com/upb/cognate/services/history"
	"github.com/upb/cognate/services/providers"
	"github.com/upb/cognate/services/providers/anthropic"
	"github.com/upb/cognate/services/providers/deepseek"
	"github.com/upb/cognate/services/providers/google"
	"github.com/upb/cognate/services/providers/openai"
	"github.com/upb/cognate/services/session"
)

const historyStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB  // nil when history is kept in memory
	Redis  *redis.Client // nil unless the redis credential backend is used

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	HistoryRepo repositories.HistoryRepository

	// Credentials
	Credentials credentials.Store
	Resolver    *credentials.Resolver

	// Providers
	Registry *providers.Registry
	Catalog  *catalog.Catalog

	// Services
	Attachments *attachments.Set
	History     *history.Service
	Dispatcher  *dispatch.Dispatcher
	Session     *session.Session
	Metrics     *observability.Metrics

	// Auth; nil disables authentication on the API routes
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCredentials(ctx, cfg); err != nil {
		deps.closeInfrastructure()
		return nil, fmt.Errorf("failed to initialize credentials: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		deps.closeInfrastructure()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initServices(cfg); err != nil {
		deps.closeInfrastructure()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects to PostgreSQL when configured, otherwise history
// falls back to the in-memory repository
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.HistoryRepo = memory.NewHistoryRepository()
		d.Logger.Info("no database configured, keeping history in memory")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.DB()
	d.HistoryRepo = factory.NewRepositories().History

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initCredentials opens the configured credential store
func (d *Dependencies) initCredentials(ctx context.Context, cfg *config.Config) error {
	switch cfg.Credentials.Backend {
	case config.CredentialsBackendFile:
		store, err := credentials.NewFileStore(cfg.Credentials.File, cfg.Credentials.Passphrase)
		if err != nil {
			return err
		}
		d.Credentials = store

	case config.CredentialsBackendRedis:
		var cipher *credentials.Cipher
		if cfg.Credentials.Passphrase != "" {
			c, err := credentials.NewCipher(cfg.Credentials.Passphrase)
			if err != nil {
				return err
			}
			cipher = c
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := credentials.NewRedisStore(client, cfg.Credentials.RedisKey, cipher)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis ping failed: %w", err)
		}

		d.Redis = client
		d.Credentials = store

	default:
		d.Credentials = credentials.NewMemoryStore()
	}

	d.Resolver = credentials.NewResolver(d.Credentials, d.Logger)
	d.Logger.Info("credential store initialized", zap.String("backend", cfg.Credentials.Backend))
	return nil
}

// initProviders builds the adapter registry and the provider catalog
func (d *Dependencies) initProviders(cfg *config.Config) error {
	configs := make(map[string]providers.ProviderConfig, len(cfg.Providers.Endpoints))
	for id, endpoint := range cfg.Providers.Endpoints {
		pc := providers.DefaultProviderConfig()
		pc.BaseURL = endpoint.BaseURL
		if endpoint.Timeout > 0 {
			pc.Timeout = endpoint.Timeout
		}
		pc.TempDir = cfg.Providers.TempDir
		configs[id] = pc
	}
	for _, id := range models.KnownProviders {
		if _, ok := configs[id]; !ok {
			pc := providers.DefaultProviderConfig()
			pc.TempDir = cfg.Providers.TempDir
			configs[id] = pc
		}
	}

	registry, err := NewRegistryBuilder(d.Logger).Build(configs)
	if err != nil {
		return err
	}
	d.Registry = registry

	specs, err := catalog.LoadFile(cfg.Providers.CatalogFile)
	if err != nil {
		return err
	}
	d.Catalog = catalog.New(specs)

	d.Logger.Info("providers initialized",
		zap.Strings("adapters", registry.List()),
		zap.Int("catalog_size", len(specs)))
	return nil
}

// NewRegistryBuilder returns a registry builder with every built-in adapter
func NewRegistryBuilder(logger *zap.Logger) *providers.RegistryBuilder {
	return providers.NewRegistryBuilder(logger).
		WithBuilder(models.ProviderOpenAI, openai.Builder).
		WithBuilder(models.ProviderAnthropic, anthropic.Builder).
		WithBuilder(models.ProviderGoogle, google.Builder).
		WithBuilder(models.ProviderDeepSeek, deepseek.Builder)
}

// initServices wires history, metrics, the dispatcher and the session
func (d *Dependencies) initServices(cfg *config.Config) error {
	d.History = history.NewService(d.HistoryRepo, d.Logger, history.DefaultConfig())
	if err := d.History.Start(); err != nil {
		return err
	}

	d.Dispatcher = dispatch.NewDispatcher(d.Registry, d.Resolver, d.Logger).
		WithHistory(d.History)

	if cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NewMetrics()
		d.Dispatcher.WithMetrics(d.Metrics)
	}

	d.Attachments = attachments.NewSet(d.Logger)
	d.Session = session.New(d.Catalog, d.Attachments, d.Dispatcher, d.Logger)
	return nil
}

// initAuth enables bearer token auth when a JWT secret is configured
func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("auth JWT secret not set, API routes are unauthenticated")
		return
	}
	validator := middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("auth middleware initialized")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.History != nil {
		timeout := historyStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.History.Stop(timeout); err != nil {
			d.Logger.Debug("history recorder not stopped", zap.Error(err))
		}
	}

	errs = append(errs, d.closeInfrastructure()...)

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}
	return nil
}

func (d *Dependencies) closeInfrastructure() []error {
	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		} else {
			d.Logger.Info("redis connection closed")
		}
		d.Redis = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
		d.DB = nil
	}

	return errs
}
