// Package server wires the gearhub services together and runs the HTTP API,
// the gRPC health endpoint and the periodic order reconciliation until the
// process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server/auth"
	"github.com/dmitrijs2005/gearhub/internal/server/config"
	"github.com/dmitrijs2005/gearhub/internal/server/httpapi"
	"github.com/dmitrijs2005/gearhub/internal/server/metrics"
	"github.com/dmitrijs2005/gearhub/internal/server/payments"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gearhub/internal/server/services"

	gs "github.com/dmitrijs2005/gearhub/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = repomanager.OpenDB

// Reconciler repairs orders whose payment was recorded but not applied.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Metrics
	tokens      *auth.TokenAuthority

	userService      *services.UserService
	inventoryService *services.InventoryService
	orderService     *services.OrderService
	paymentService   *services.PaymentService
}

// NewApp opens the database and builds every service. The caller owns the
// returned App and must Close it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	openCtx, cancel := context.WithTimeout(ctx, c.StoreTimeout)
	defer cancel()

	db, err := openDB(openCtx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	mt := metrics.NewMetrics()
	tokens := auth.NewTokenAuthority([]byte(c.SecretKey))

	ps := services.NewPaymentService(payments.NewStripeProcessor(c.PaymentSecretKey, c.PaymentBackendURL), c, mt, logger)

	var verifier services.PaymentVerifier
	if c.VerifyPayments {
		verifier = ps
	} else {
		logger.Warn(ctx, "payment verification disabled, client-reported transactions are trusted")
	}

	return &App{
		config:           c,
		logger:           logger,
		db:               db,
		repomanager:      rm,
		metrics:          mt,
		tokens:           tokens,
		userService:      services.NewUserService(db, rm, tokens, c, logger),
		inventoryService: services.NewInventoryService(db, rm, services.NewS3ImageStore(c), c, mt, logger),
		orderService:     services.NewOrderService(db, rm, verifier, c, mt, logger),
		paymentService:   ps,
	}, nil
}

func (app *App) Close() error {
	return app.db.Close()
}

// Migrate applies all pending schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return err
	}
	app.logger.Info(ctx, "migrations applied")
	return nil
}

// ReconcileOnce runs a single recovery scan.
func (app *App) ReconcileOnce(ctx context.Context) (int, error) {
	return app.orderService.Reconcile(ctx)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context) error {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, httpapi.Deps{
		Tokens:    app.tokens,
		Users:     app.userService,
		Inventory: app.inventoryService,
		Orders:    app.orderService,
		Payments:  app.paymentService,
		DB:        app.db,
		Metrics:   app.metrics,
		Logger:    app.logger,
	})

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// serve runs every runner until all return. The first failure cancels the
// rest and is returned.
func serve(ctx context.Context, cancelFunc context.CancelFunc, logger logging.Logger,
	runners ...func(context.Context) error) error {
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)

	for _, run := range runners {
		wg.Add(1)
		go func(run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil {
				logger.Error(ctx, err.Error())
				once.Do(func() { first = err })
				cancelFunc()
			}
		}(run)
	}

	wg.Wait()
	return first
}

// reconcileLoop runs r every interval until ctx is done. A non-positive
// interval disables it.
func reconcileLoop(ctx context.Context, r Reconciler, interval time.Duration, logger logging.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Reconcile(ctx)
			if err != nil {
				logger.Error(ctx, "reconcile failed", "repaired", n, "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "reconciled orders", "repaired", n)
			}
		}
	}
}

// Run migrates the schema and serves until a termination signal arrives or
// one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	err := serve(ctx, cancelFunc, app.logger,
		app.startHTTPServer,
		app.startGRPCServer,
		func(ctx context.Context) error {
			reconcileLoop(ctx, app.orderService, app.config.ReconcileInterval, app.logger)
			return nil
		},
	)

	app.logger.Info(context.Background(), "App stopped")
	return err
}
