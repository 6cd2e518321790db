// Package app assembles the point-of-sale service from its components.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/payper/pkg"
	"github.com/appetiteclub/payper/pkg/event"
	"github.com/appetiteclub/payper/services/pos/internal/floor"
	"github.com/appetiteclub/payper/services/pos/internal/kitchen"
	"github.com/appetiteclub/payper/services/pos/internal/menu"
	"github.com/appetiteclub/payper/services/pos/internal/mongo"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/postgres"
	"github.com/appetiteclub/payper/services/pos/internal/redis"
	"github.com/appetiteclub/payper/services/pos/internal/report"
	"github.com/appetiteclub/payper/services/pos/internal/session"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const journalConsumer = "pos-sales-journal"

// App holds every wired component. HTTP modules are exported for the
// micro server, the rest is driven through Lifecycles.
type App struct {
	Orders   *order.Handler
	Kitchen  *kitchen.Handler
	Tables   *tables.Handler
	Menu     *menu.Handler
	Floor    *floor.Handler
	Reports  *report.Handler
	Settings *settings.Handler
	Sessions *session.Handler
	Metrics  *MetricsHandler
	Stream   *order.GRPCStream

	cfg        Settings
	logger     apt.Logger
	mongo      *mongo.Client
	orderRepo  *mongo.OrderRepo
	menuRepo   *mongo.MenuItemRepo
	tableRepo  *mongo.TableRepo
	settRepo   *mongo.SettingsRepo
	registry   *tables.Registry
	store      *settings.Store
	keys       lifecycle
	board      *kitchen.BoardCache
	limiter    *session.Limiter
	publisher  *pkg.NATSPublisher
	subscriber *pkg.NATSSubscriber
	changes    *order.ChangeSubscriber
	stream     *pkg.NATSStream
	journal    *postgres.SalesJournal
	journalSub *report.JournalSubscriber
	runCtx     context.Context
}

type lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// New connects the message bus and builds the component graph. Stores are
// connected later by the lifecycle hooks.
func New(ctx context.Context, config *apt.Config, logger apt.Logger) (*App, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	cfg := LoadSettings(config)
	if cfg.Instance == "" {
		cfg.Instance = "pos-" + uuid.NewString()[:8]
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	a := &App{cfg: cfg, logger: logger, runCtx: ctx}

	a.publisher, err = pkg.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS publisher: %w", err)
	}
	a.subscriber, err = pkg.NewNATSSubscriber(cfg.NATSURL, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS subscriber: %w", err)
	}

	a.mongo = mongo.NewClient(config, logger)
	a.orderRepo = mongo.NewOrderRepo(a.mongo, logger)
	a.menuRepo = mongo.NewMenuItemRepo(a.mongo, logger)
	a.tableRepo = mongo.NewTableRepo(a.mongo, logger)
	a.settRepo = mongo.NewSettingsRepo(a.mongo, logger)

	a.registry = tables.NewRegistry(a.tableRepo, logger)
	a.store = settings.NewStore(a.settRepo, logger)
	catalog := menu.NewCatalog(a.menuRepo)

	var keys order.KeyStore
	if cfg.RedisURL != "" {
		rk := redis.NewKeyStore(cfg.RedisURL, cfg.IdempotencyTTL, logger)
		keys, a.keys = rk, rk
	} else {
		mk := order.NewMemoryKeyStore(cfg.IdempotencyTTL, logger)
		keys, a.keys = mk, mk
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := order.NewMetrics(promRegistry)

	hub := order.NewHub(a.orderRepo, logger)
	lifecycleEvents := order.NewEventPublisher(a.publisher, cfg.Instance, logger)
	a.changes = order.NewChangeSubscriber(a.subscriber, hub, cfg.Instance, logger)

	svc := order.NewService(order.ServiceDeps{
		Repo:     a.orderRepo,
		Catalog:  catalog,
		Tables:   a.registry,
		Keys:     keys,
		Notifier: order.Notifiers{hub, lifecycleEvents},
		Metrics:  metrics,
	}, logger, order.WithWriteAttempts(cfg.WriteAttempts))

	a.board = kitchen.NewBoardCache(hub, a.registry, logger)

	var journal report.Journal
	if cfg.PostgresURL != "" {
		a.journal = postgres.NewSalesJournal(cfg.PostgresURL, cfg.Timezone, logger)
		journal = a.journal

		a.stream, err = pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
			URL:          cfg.NATSURL,
			StreamName:   "ORDER_EVENTS",
			Subjects:     []string{event.OrderLifecycleTopic},
			ConsumerName: journalConsumer,
			MaxAge:       cfg.StreamMaxAge,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("cannot open order event stream: %w", err)
		}
		a.journalSub = report.NewJournalSubscriber(a.stream, a.journal, logger)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		logger.Info("session.secret not set, customer leases will not survive a restart")
	}
	manager := session.NewManager(session.NewIssuer(secret, cfg.SessionTTL), a.registry, a.store, logger)
	a.limiter = session.NewLimiter(cfg.RatePerMinute, cfg.RateBurst, cfg.SessionTTL, logger)

	a.Orders = order.NewHandler(order.HandlerDeps{
		Service:  svc,
		Tables:   a.registry,
		Branding: a.store,
		Location: loc,
		Live:     order.NewWSHandler(hub, loc, logger),
	}, logger)
	a.Kitchen = kitchen.NewHandler(a.board, svc, logger)
	a.Tables = tables.NewHandler(a.registry, a.orderRepo, logger)
	a.Menu = menu.NewHandler(a.menuRepo, logger)
	a.Floor = floor.NewHandler(svc, a.registry, logger)
	a.Reports = report.NewHandler(svc, journal, loc, logger)
	a.Settings = settings.NewHandler(a.store, logger)
	a.Sessions = session.NewHandler(manager, svc, a.limiter, logger)
	a.Metrics = NewMetricsHandler(promRegistry, a)
	a.Stream = order.NewGRPCStream(hub, loc, logger)

	return a, nil
}

// Lifecycles lists the start and stop hooks in dependency order.
func (a *App) Lifecycles() []interface{} {
	hooks := []interface{}{
		apt.LifecycleHooks{OnStart: a.startStorage, OnStop: a.mongo.Stop},
		apt.LifecycleHooks{OnStart: a.keys.Start, OnStop: a.keys.Stop},
		apt.LifecycleHooks{OnStart: a.limiter.Start, OnStop: a.limiter.Stop},
		apt.LifecycleHooks{
			OnStart: a.onRun(a.changes.Start),
			OnStop:  closer(a.subscriber),
		},
		apt.LifecycleHooks{OnStart: a.startBoard, OnStop: a.board.Stop},
		apt.LifecycleHooks{OnStop: closer(a.publisher)},
	}

	if a.journal != nil {
		hooks = append(hooks,
			apt.LifecycleHooks{OnStart: a.journal.Start, OnStop: a.journal.Stop},
			apt.LifecycleHooks{OnStart: a.onRun(a.journalSub.Start), OnStop: closer(a.stream)},
		)
	}

	if a.cfg.DemoSeeding {
		a.logger.Info("Demo seeding enabled for pos service")
		hooks = append(hooks, apt.LifecycleHooks{
			OnStart: DemoSeedingFunc(a.runCtx, a.mongo, a.registry, a.menuRepo, a.store, a.logger),
		})
	}
	return hooks
}

func (a *App) startStorage(ctx context.Context) error {
	if err := a.mongo.Start(ctx); err != nil {
		return err
	}
	for _, repo := range []interface{ Start(context.Context) error }{a.orderRepo, a.menuRepo, a.tableRepo, a.settRepo} {
		if err := repo.Start(ctx); err != nil {
			return err
		}
	}
	return a.registry.Warm(ctx)
}

// startBoard runs the kitchen board on the service context. The hook context
// only bounds startup.
func (a *App) startBoard(ctx context.Context) error {
	warmCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- a.board.Start(a.runCtx) }()

	select {
	case err := <-errCh:
		return err
	case <-warmCtx.Done():
		return fmt.Errorf("kitchen board did not warm: %w", warmCtx.Err())
	}
}

// Ping reports whether the document store answers.
func (a *App) Ping(ctx context.Context) error {
	return a.mongo.Ping(ctx)
}

// onRun starts long-lived consumers on the service context so their handlers
// outlive the startup hook.
func (a *App) onRun(start func(context.Context) error) func(context.Context) error {
	return func(context.Context) error {
		return start(a.runCtx)
	}
}

func closer(c interface{ Close() error }) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}

var (
	_ events.Publisher  = (*pkg.NATSPublisher)(nil)
	_ events.Subscriber = (*pkg.NATSSubscriber)(nil)
	_ events.Subscriber = (*pkg.NATSStream)(nil)
)
