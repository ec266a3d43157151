package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"gorm.io/gorm"
	"portfolioapi.app/api"
	"portfolioapi.app/config"
	"portfolioapi.app/database"
	"portfolioapi.app/providers"
	"portfolioapi.app/providers/cache"
	"portfolioapi.app/ratelimit"
	"portfolioapi.app/repository"
	"portfolioapi.app/scheduler"
	"portfolioapi.app/service"
)

// Application represents the main application with all its dependencies
type Application struct {
	config    *config.Config
	db        *gorm.DB
	server    *api.Server
	scheduler *scheduler.Scheduler
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully")
	return nil
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")

	store, err := app.createSubscriberStore()
	if err != nil {
		return fmt.Errorf("create subscriber store: %w", err)
	}

	sourceManager, err := app.createSourceManager()
	if err != nil {
		return fmt.Errorf("create source manager: %w", err)
	}

	emailProvider := providers.NewSMTPEmailProvider(&app.config.Email)
	emailService := service.NewEmailService(emailProvider)

	limiter := ratelimit.NewLimiter(app.config.RateLimit.SubscribeLimit, app.config.RateLimit.Window())

	subscriptionService := service.NewSubscriptionService(store, emailService, limiter, app.config)
	qualityService := service.NewQualityService(sourceManager)

	server, err := api.NewServer(api.ServerOptions{
		Config:              app.config,
		SubscriptionService: subscriptionService,
		QualityService:      qualityService,
		SourceInfo:          sourceManager,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	app.server = server
	app.scheduler = scheduler.NewScheduler(app.config, sourceManager)

	slog.Info("Services initialized successfully")
	return nil
}

// createSubscriberStore wires the configured backend behind the store
// contract: PostgreSQL through GORM or DynamoDB through the AWS SDK.
func (app *Application) createSubscriberStore() (service.SubscriberStoreInterface, error) {
	switch app.config.Store.Type {
	case config.StoreTypeDynamo:
		return app.createDynamoStore()
	default:
		if err := app.initializeDatabase(); err != nil {
			return nil, err
		}
		return repository.NewSubscriberRepository(app.db), nil
	}
}

func (app *Application) initializeDatabase() error {
	slog.Info("Initializing database...")

	db, err := database.InitDB(app.config.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return fmt.Errorf("initialize database connection: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		return fmt.Errorf("run database migrations: %w", err)
	}

	app.db = db
	slog.Info("Database initialized successfully")
	return nil
}

func (app *Application) createDynamoStore() (service.SubscriberStoreInterface, error) {
	slog.Info("Initializing DynamoDB store...", "table", app.config.Dynamo.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(app.config.Dynamo.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws configuration: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if app.config.Dynamo.Endpoint != "" {
			o.BaseEndpoint = &app.config.Dynamo.Endpoint
		}
	})

	return repository.NewDynamoSubscriberStore(client, app.config.Dynamo.Table), nil
}

// createSourceManager assembles the quality telemetry fallback chain from
// the configured capabilities.
func (app *Application) createSourceManager() (*providers.SourceManager, error) {
	slog.Debug("Creating quality source manager...")

	snapshotCache, err := app.createSnapshotCache()
	if err != nil {
		return nil, err
	}

	sourceConfig := &providers.SourceConfiguration{
		ProxyURL:       app.config.Quality.ProxyURL,
		ProxySecret:    app.config.Quality.ProxySecret,
		Bucket:         app.config.Quality.Bucket,
		Prefix:         app.config.Quality.Prefix,
		Region:         app.config.Quality.Region,
		Endpoint:       app.config.Dynamo.Endpoint,
		SnapshotPath:   app.config.Quality.SnapshotPath,
		HistoryLimit:   app.config.Quality.HistoryLimit,
		CacheTTL:       time.Duration(app.config.Quality.CacheTTLMinutes) * time.Minute,
		EnableCache:    app.config.Quality.EnableCache,
		CacheType:      app.config.Cache.Type,
		Cache:          snapshotCache,
		EnableAuditLog: app.config.Quality.EnableAuditLog,
		AuditLogPath:   app.config.Quality.AuditLogPath,
		SourceOrder:    []string{providers.SourceProxy, providers.SourceCloud, providers.SourceSnapshot},
	}

	sourceManager, err := providers.NewSourceManager(sourceConfig)
	if err != nil {
		return nil, err
	}

	slog.Debug("Source manager created", "config", sourceManager.GetSourceInfo())
	return sourceManager, nil
}

func (app *Application) createSnapshotCache() (providers.Cache, error) {
	if !app.config.Quality.EnableCache || app.config.Cache.Type != config.CacheTypeRedis {
		// nil lets the source manager fall back to its in-memory cache
		return nil, nil
	}

	timeout := time.Duration(app.config.Cache.TimeoutMS) * time.Millisecond
	redisCache, err := cache.NewRedisCache(&cache.RedisCacheConfig{
		Addr:         app.config.Cache.RedisAddr,
		Password:     app.config.Cache.RedisPassword,
		DB:           app.config.Cache.RedisDB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis cache: %w", err)
	}
	return redisCache, nil
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting application...")

	slog.Info("Starting scheduler...")
	app.scheduler.Start()

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := database.CloseDB(app.db); err != nil {
			slog.Warn("Error closing database", "error", err)
		}
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
