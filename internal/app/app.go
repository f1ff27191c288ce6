// Package app assembles the storefront from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lumina_shop/internal/apiclient"
	"github.com/Skotchmaster/lumina_shop/internal/cart"
	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/internal/config"
	"github.com/Skotchmaster/lumina_shop/internal/contact"
	"github.com/Skotchmaster/lumina_shop/internal/httpserver"
	"github.com/Skotchmaster/lumina_shop/internal/newsletter"
	"github.com/Skotchmaster/lumina_shop/internal/order"
	"github.com/Skotchmaster/lumina_shop/internal/search"
	"github.com/Skotchmaster/lumina_shop/pkg/db"
	"github.com/Skotchmaster/lumina_shop/pkg/events"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/csrf"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

const sweepEvery = 5 * time.Minute

type App struct {
	Echo     *echo.Echo
	Carts    *cart.Registry
	Sessions *checkout.Sessions

	cfg     *config.Config
	log     *slog.Logger
	db      *gorm.DB
	ready   []func(context.Context) error
	closers []func() error
}

// New wires every component. Optional backends (kafka, elasticsearch, the
// REST backend) are skipped when not configured; a configured search
// backend that cannot be reached only disables search.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	seed, err := catalog.LoadSeed(cfg.CatalogSeed)
	if err != nil {
		return err
	}
	store, err := catalog.NewStoreFromSeed(seed)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.db = gdb
	a.closers = append(a.closers, func() error { return db.Close(gdb) })
	a.ready = append(a.ready, func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	orderRepo := &order.GormRepo{DB: gdb}
	if err := orderRepo.Migrate(); err != nil {
		return fmt.Errorf("migrate orders: %w", err)
	}
	news := &newsletter.Service{DB: gdb}
	if err := news.Migrate(); err != nil {
		return fmt.Errorf("migrate newsletter: %w", err)
	}

	kv, err := a.keyValueStore(initCtx, gdb)
	if err != nil {
		return err
	}

	pub := a.publisher()

	reviews, comments := seedAggregators(store, seed)
	reviews.Subscribe(publishEntry(pub, log))
	comments.Subscribe(publishEntry(pub, log))

	carts := cart.NewRegistry(kv, cart.WithLogger(log))
	carts.Subscribe(func(ev cart.Event) {
		if err := pub.PublishEvent(context.Background(), events.TopicCart, ev.Key, ev); err != nil {
			log.Error("cart_publish_error", "key", ev.Key, "error", err)
		}
	})
	a.Carts = carts

	orders := order.NewService(orderRepo, pub, log)

	var remote *apiclient.Client
	if cfg.BackendURL != "" {
		remote = apiclient.New(cfg.BackendURL, apiclient.NewTokenStore(kv), apiclient.WithLogger(log))
		log.Info("orders_forwarded", "backend", cfg.BackendURL)
	}

	gateway := checkout.NewSimulatedGateway(cfg.PaymentDelay)
	a.Sessions = checkout.NewSessions(func(ctx context.Context, visitorID string) *checkout.Controller {
		var placer checkout.OrderPlacer = orders.PlacerFor(visitorID)
		if remote != nil {
			placer = remote
		}
		return checkout.New(carts.For(ctx, visitorID), placer,
			checkout.WithCartLookup(func() checkout.Cart { return carts.For(context.Background(), visitorID) }),
			checkout.WithGateway(gateway),
			checkout.WithTimeout(cfg.PaymentTimeout),
			checkout.WithLogger(log.With("visitor", visitorID)),
			checkout.WithConfirmationHook(func(c checkout.Confirmation) {
				log.Info("checkout_complete", "order", c.OrderNumber, "total", c.Totals.Total.StringFixed(2))
			}),
		)
	})

	var searcher httpserver.Searcher
	if cfg.ESURL != "" {
		if ix, err := a.searchIndex(initCtx, store); err != nil {
			log.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			searcher = ix
		}
	}

	deps := &httpserver.Deps{
		Shop:     &httpserver.ShopHTTP{Catalog: store, Reviews: reviews, Searcher: searcher},
		Blog:     &httpserver.BlogHTTP{Catalog: store, Comments: comments, Newsletter: news, Searcher: searcher},
		Cart:     &httpserver.CartHTTP{Carts: carts, Catalog: store},
		Checkout: &httpserver.CheckoutHTTP{Sessions: a.Sessions},
		Orders:   &httpserver.OrderHTTP{Orders: orders},
		Contact:  &httpserver.ContactHTTP{Svc: contact.New(pub, cfg.ContactDelay, log)},
		Visitor:  visitor.New(cfg.VisitorSecret, cfg.SecureCookies),
		Ready:    a.Ready,
	}
	if !cfg.CSRFDisabled {
		c := csrf.DefaultConfig()
		c.Secure = cfg.SecureCookies
		deps.CSRF = &c
	}

	if cfg.BackendURL != "" {
		if deps.Auth, err = httpserver.NewProxy(cfg.BackendURL, "/api/v1"); err != nil {
			return fmt.Errorf("auth proxy: %w", err)
		}
	}

	a.Echo = httpserver.NewEcho(log)
	httpserver.Register(a.Echo, deps)
	return nil
}

func (a *App) keyValueStore(ctx context.Context, gdb *gorm.DB) (storage.Store, error) {
	switch a.cfg.CartStore {
	case config.CartStoreRedis:
		rs := storage.NewRedisStore(a.cfg.RedisAddr, "lumina:", a.cfg.CartTTL)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		a.ready = append(a.ready, rs.Ping)
		return rs, nil
	case config.CartStoreMemory:
		return storage.NewMemory(), nil
	default:
		return storage.NewGormStore(gdb)
	}
}

func (a *App) publisher() events.Publisher {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.log.Info("events_in_memory", "reason", "KAFKA_BROKERS not set")
		return events.NewMemory()
	}
	p := events.NewProducer(a.cfg.KafkaBrokers)
	a.closers = append(a.closers, p.Close)
	return p
}

func (a *App) searchIndex(ctx context.Context, store *catalog.Store) (*search.Index, error) {
	es, err := search.NewClient(ctx, search.Config{URL: a.cfg.ESURL, User: a.cfg.ESUser, Password: a.cfg.ESPassword}, a.log)
	if err != nil {
		return nil, err
	}
	ix := search.NewIndex(es, a.cfg.ESIndex, a.log)
	if err := ix.Ensure(ctx); err != nil {
		return nil, err
	}
	n, err := ix.IndexCatalog(ctx, store)
	if err != nil {
		return nil, err
	}
	a.log.Info("search_index_loaded", "index", a.cfg.ESIndex, "documents", n)
	return ix, nil
}

func (a *App) Ready(ctx context.Context) error {
	var errs []error
	for _, check := range a.ready {
		errs = append(errs, check(ctx))
	}
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("server_start", "port", a.cfg.ServerPort)
		if err := a.Echo.Start(":" + a.cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("echo start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				a.sweep()
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("server_shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) sweep() {
	flows := a.Sessions.Sweep(a.cfg.SessionIdle)
	carts := a.Carts.Sweep(a.cfg.SessionIdle)
	if flows > 0 || carts > 0 {
		a.log.Debug("sessions_swept", "checkouts", flows, "carts", carts)
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
