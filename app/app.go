// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-ledger-api/config"
	"go-ledger-api/db"
	"go-ledger-api/events"
	"go-ledger-api/handler"
	"go-ledger-api/idgen"
	"go-ledger-api/logger"
	"go-ledger-api/metrics"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"go-ledger-api/repository/memory"
	"go-ledger-api/router"
	"go-ledger-api/scheduler"
	"go-ledger-api/service"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
)

// App holds the wired layers and the background workers.
type App struct {
	Handler   http.Handler
	Engine    *service.TransferEngine
	Accounts  *service.AccountService
	Scheduler *scheduler.InterestScheduler
	Relay     *events.Relay

	closers []func() error
}

type storage struct {
	accounts  repository.IAccountRepository
	ledger    repository.ITransactionRepository
	customers repository.ICustomerRepository
}

// New wires every layer according to cfg. It opens connections but starts no
// background work; see Start.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	store, err := a.openStorage(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cache service.ICacheClient
	if cfg.Redis.Enabled {
		rdb, err := db.ConnectRedis(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		cache = rdb
	}

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	a.closers = append(a.closers, publisher.Close)

	ids := idgen.New()

	// --- Wiring All Layers Together ---
	a.Engine = service.NewTransferEngine(store.accounts, store.ledger, ids,
		service.WithMaxRetries(cfg.Ledger.MaxRetries),
		service.WithRetryBackoff(cfg.Ledger.RetryBackoff),
		service.WithCache(cache),
	)
	a.Accounts = service.NewAccountService(store.accounts, store.customers, store.ledger, ids, cache, service.AccountServiceConfig{
		Rates: service.InterestRates{
			Savings: decimal.NewFromFloat(cfg.Interest.SavingsRate).Round(2),
			Current: decimal.NewFromFloat(cfg.Interest.CurrentRate).Round(2),
		},
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
		CacheTTL:     cfg.Redis.TTL,
	})
	transactions := service.NewTransactionService(store.accounts, store.ledger)

	a.Scheduler = scheduler.New(store.accounts,
		scheduler.WithSchedule(cfg.Interest.Schedule),
		scheduler.WithWorkers(cfg.Interest.Workers),
		scheduler.WithCache(cache),
	)
	a.Relay = events.NewRelay(store.ledger, publisher, cfg.Events.RelayInterval, cfg.Events.BatchSize)

	a.Handler = router.NewRouter(router.Handlers{
		Account:   handler.NewAccountHandler(a.Accounts, a.Engine, transactions),
		Admin:     handler.NewAdminHandler(a.Accounts, transactions, a.Scheduler),
		JWTSecret: []byte(cfg.JWT.SecretKey),
	})
	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		for _, id := range cfg.Storage.MemoryCustomers {
			store.SetCustomerStatus(id, model.CustomerStatusActive)
		}
		logger.Log.WithField("customers", len(cfg.Storage.MemoryCustomers)).Warn("Using in-memory storage; data is lost on exit")
		return storage{accounts: store, ledger: store.Ledger(), customers: store}, nil
	case "postgres", "":
		if err := db.Migrate(db.DSN(cfg)); err != nil {
			return storage{}, err
		}
		database, err := db.Connect(ctx, cfg)
		if err != nil {
			return storage{}, err
		}
		a.closers = append(a.closers, database.Close)
		return postgresStorage(database), nil
	default:
		return storage{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func postgresStorage(database *sql.DB) storage {
	return storage{
		accounts:  repository.NewAccountRepository(database),
		ledger:    repository.NewTransactionRepository(database),
		customers: repository.NewCustomerRepository(database),
	}
}

// Start launches the interest scheduler and the event relay. Both stop when ctx ends.
func (a *App) Start(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start interest scheduler: %w", err)
	}
	go a.Relay.Run(ctx)
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Configure(config.AppConfig.App.Env, config.AppConfig.Log.Level)
	logger.Log.Info("Configuration loaded successfully")
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, config.AppConfig)
	if err != nil {
		logger.Log.Fatalf("Error initializing application: %v", err)
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		logger.Log.Fatalf("Error starting background jobs: %v", err)
	}

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Errorf("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}
	a.Scheduler.Stop()

	logger.Log.Info("Server exited properly")
}
