package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/applications"
	"loanflow-backend/internal/documents"
	"loanflow-backend/internal/notifications"
	"loanflow-backend/internal/products"
	"loanflow-backend/internal/services/health"
	"loanflow-backend/internal/shared/config"
	"loanflow-backend/internal/shared/server"
	"loanflow-backend/internal/shared/storage/db"
	"loanflow-backend/internal/shared/storage/object"
	localstore "loanflow-backend/internal/shared/storage/object/local"
	s3store "loanflow-backend/internal/shared/storage/object/s3"
	"loanflow-backend/internal/workflows"
)

// App holds shared dependencies built from configuration.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	Dispatcher *notifications.Dispatcher
	Sink       notifications.Notifier

	ApplicationsRepo applications.Repo
	WorkflowsRepo    workflows.Repo
	ProductsRepo     products.Repo

	ProductsService     *products.Service
	WorkflowsService    *workflows.Service
	ApplicationsService *applications.Service

	ProductsHandler     *products.Handler
	ApplicationsHandler *applications.Handler
	WorkflowsHandler    *workflows.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sink, err := buildNotificationSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		DB:         sqlDB,
		Store:      store,
		Sink:       sink,
		Dispatcher: notifications.NewDispatcher(sink),
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		Health:              health.NewService(app.DB),
		ProductsHandler:     app.ProductsHandler,
		ApplicationsHandler: app.ApplicationsHandler,
		WorkflowsHandler:    app.WorkflowsHandler,
	})

	return app, nil
}

// Close releases background resources. The dispatcher drains queued
// notifications before returning.
func (a *App) Close() {
	if a.Dispatcher != nil {
		a.Dispatcher.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildNotificationSink(ctx context.Context, cfg config.Config) (notifications.Notifier, error) {
	if strings.TrimSpace(cfg.NotificationsQueueURL) == "" {
		return notifications.LogNotifier{}, nil
	}
	return notifications.NewSQSNotifier(ctx, cfg.AWSRegion, cfg.NotificationsQueueURL)
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.ApplicationsRepo = &applications.PGRepo{DB: app.DB}
		app.WorkflowsRepo = &workflows.PGRepo{DB: app.DB}
		app.ProductsRepo = &products.PGRepo{DB: app.DB}
	} else {
		app.ApplicationsRepo = applications.NewMemoryRepo()
		app.WorkflowsRepo = workflows.NewMemoryRepo()
		app.ProductsRepo = products.NewMemoryRepo()
	}

	app.ProductsService = products.NewService(app.ProductsRepo)
	if isDevLike(app.Config.Env) {
		if err := app.ProductsService.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}

	gate := &documents.Gate{Store: app.Store}
	app.WorkflowsService = workflows.NewService(app.WorkflowsRepo, app.Dispatcher)
	app.ApplicationsService = applications.NewService(
		app.ApplicationsRepo,
		app.ProductsService,
		gate,
		app.WorkflowsService,
		app.Dispatcher,
	)

	app.ProductsHandler = products.NewHandler(app.ProductsService)
	app.ApplicationsHandler = applications.NewHandler(app.ApplicationsService)
	app.WorkflowsHandler = workflows.NewHandler(app.WorkflowsService)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
