package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/logger"

	"github.com/akozyrev/TrainingEvents/internal/calendar"
	"github.com/akozyrev/TrainingEvents/internal/config"
	"github.com/akozyrev/TrainingEvents/internal/handler"
	"github.com/akozyrev/TrainingEvents/internal/indexer"
	"github.com/akozyrev/TrainingEvents/internal/middleware"
	"github.com/akozyrev/TrainingEvents/internal/notification"
	"github.com/akozyrev/TrainingEvents/internal/rabbit"
	"github.com/akozyrev/TrainingEvents/internal/repository"
	"github.com/akozyrev/TrainingEvents/internal/router"
	"github.com/akozyrev/TrainingEvents/internal/scheduler"
	"github.com/akozyrev/TrainingEvents/internal/service"
)

const migrationsDir = "migrations"

type App struct {
	cfg         *config.Config
	log         logger.Logger
	db          *dbpg.DB
	rabbit      *rabbit.Client
	indexWorker *indexer.Worker
	httpServer  *http.Server
	scheduler   *scheduler.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	log, err := logger.InitLogger(
		cfg.Logger.LogEngine(),
		"TrainingEvents",
		cfg.Gin.Mode,
		logger.WithLevel(cfg.Logger.LogLevel()),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	app.log = log

	if err = app.runMigrations(); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	if err = app.initDB(); err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if err = app.initRabbit(); err != nil {
		return nil, fmt.Errorf("init rabbit: %w", err)
	}

	if err = app.initServices(); err != nil {
		return nil, fmt.Errorf("init services: %w", err)
	}

	return app, nil
}

func (a *App) initDB() error {
	db, err := dbpg.New(
		a.cfg.Postgres.DSN(),
		nil,
		&dbpg.Options{
			MaxOpenConns: a.cfg.Postgres.MaxOpenConns,
			MaxIdleConns: a.cfg.Postgres.MaxIdleConns,
		},
	)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.Master.PingContext(context.Background()); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	a.db = db
	a.log.LogAttrs(context.Background(), logger.InfoLevel, "database connected",
		logger.String("host", a.cfg.Postgres.Host),
		logger.Int("port", a.cfg.Postgres.Port),
		logger.String("database", a.cfg.Postgres.Database),
	)

	return nil
}

func (a *App) initRabbit() error {
	client, err := rabbit.New(a.cfg.Rabbit.URL, a.cfg.Rabbit.Exchange, a.cfg.Rabbit.Queue, a.log)
	if err != nil {
		return fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	a.rabbit = client
	return nil
}

func (a *App) initServices() error {
	eventRepo := repository.NewEventRepo(a.db)
	categoryRepo := repository.NewCategoryRepo(a.db)
	groupRepo := repository.NewGroupRepo(a.db)
	installationRepo := repository.NewInstallationRepo(a.db)
	indexRepo := repository.NewIndexRepo(a.db)

	notifier, err := notification.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.log)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}

	cal := calendar.NewClient(
		a.cfg.Calendar.BaseURL,
		a.cfg.Calendar.Token,
		a.cfg.Calendar.Timeout,
		a.log,
	)

	sync := indexer.NewSynchronizer(a.rabbit, indexRepo, a.log)
	a.indexWorker = indexer.NewWorker(a.rabbit, sync, a.log)

	lifecycle := service.NewLifecycleService(eventRepo, groupRepo, cal, notifier, installationRepo, sync, a.log)
	registrations := service.NewRegistrationService(eventRepo, cal, sync, a.log)
	search := service.NewSearchService(indexRepo, groupRepo, a.log)
	categories := service.NewCategoryService(categoryRepo)
	installations := service.NewInstallationService(installationRepo)

	a.scheduler = scheduler.New(
		eventRepo,
		installationRepo,
		notifier,
		sync,
		a.cfg.Scheduler.Interval,
		a.log,
	)

	h := handler.NewHandler(lifecycle, registrations, search, categories, installations)
	r := router.InitRouter(
		a.cfg.Gin.Mode,
		h,
		middleware.RequestID(),
		middleware.RequestLogger(a.log),
		middleware.Recovery(a.log),
	)

	a.httpServer = &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	return nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.indexWorker.Start(ctx)
	go a.scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.LogAttrs(ctx, logger.InfoLevel, "HTTP server starting",
			logger.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.log.LogAttrs(context.Background(), logger.InfoLevel, "shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.log.LogAttrs(context.Background(), logger.InfoLevel, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		a.cfg.Server.WriteTimeout,
	)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.log.LogAttrs(context.Background(), logger.InfoLevel, "HTTP server stopped")

	a.indexWorker.Stop()
	a.rabbit.Close()
	a.log.LogAttrs(context.Background(), logger.InfoLevel, "index worker stopped")

	if err := a.db.Master.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	a.log.LogAttrs(context.Background(), logger.InfoLevel, "database connection closed")

	a.log.LogAttrs(context.Background(), logger.InfoLevel, "app stopped")

	return nil
}

func (a *App) runMigrations() error {
	db, err := sql.Open("postgres", a.cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	a.log.Info("migrations applied successfully")
	return nil
}
