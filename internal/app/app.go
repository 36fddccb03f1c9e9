package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segyhp/rental-engine/internal/config"
	"github.com/segyhp/rental-engine/internal/handler"
	"github.com/segyhp/rental-engine/internal/ledger"
	"github.com/segyhp/rental-engine/internal/publisher"
	"github.com/segyhp/rental-engine/internal/repository"
	"github.com/segyhp/rental-engine/internal/service"
	"github.com/segyhp/rental-engine/pkg/response"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// App holds the backends and the rental service shared by the server and
// the scheduler. DB and Redis are nil when their driver is not selected.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Service *service.RentalService
}

// New connects the configured backends and builds the rental service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repo, err := a.initRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	pub, err := a.initPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	pointsLedger := ledger.NewHTTPLedger(cfg.Ledger.URL, cfg.Ledger.Timeout)

	a.Service = service.NewRentalService(repo, pub, pointsLedger, cfg, logger)
	return a, nil
}

func (a *App) initRepository(ctx context.Context) (repository.RentalRepository, error) {
	if a.Config.Database.Driver == config.StorageDriverMemory {
		a.Logger.Warn("using in-memory storage, rentals are lost on restart")
		return repository.NewMemoryRentalRepository(), nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", a.Config.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(a.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(a.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(a.Config.Database.ConnMaxLifetime)
	a.DB = db

	if err = repository.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repository.NewRentalRepository(db), nil
}

func (a *App) initPublisher(ctx context.Context) (publisher.Publisher, error) {
	if a.Config.Events.Driver == config.EventsDriverLog {
		return publisher.NewLogPublisher(a.Logger), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr(),
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	a.Redis = client

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return publisher.NewRedisPublisher(client, a.Config.Events.StreamPrefix, a.Config.Events.StreamMaxLen), nil
}

// Router mounts the health and rental APIs
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(a.Logger))

	handler.NewHealthHandler(a.DB, a.Redis, a.Config.Health.Timeout).RegisterRoutes(router)
	handler.NewRentalHandler(a.Service, a.Logger).RegisterRoutes(router)

	return router
}

// Close releases the backends opened by New.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
