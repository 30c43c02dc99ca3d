package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/coffee-shop/internal/domain/auth"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/profile"
	"github.com/xenking/coffee-shop/internal/handler"
	"github.com/xenking/coffee-shop/internal/seed"
	"github.com/xenking/coffee-shop/internal/storage/postgres"
	"github.com/xenking/coffee-shop/pkg/health"
	"github.com/xenking/coffee-shop/pkg/httpmiddleware"
)

const (
	serviceName = "coffee-api"
	loginPath   = "/api/admin/login"
)

// Run prepares the database, builds the API and serves it until ctx is
// cancelled.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Starting coffee shop API", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := prepareDatabase(ctx, pool, cfg.Seed); err != nil {
		return err
	}

	hc := newHealth(lg, pool)
	hc.Start(ctx, 10*time.Second)
	hc.SetReady(true)

	api, err := newAPI(pool, m, cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", hc.LiveEndpoint)
	mux.HandleFunc("/readyz", hc.ReadyEndpoint)
	api.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middlewares(ctx, lg, m, cfg, mux),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
	return serve(ctx, lg, srv, hc, cfg.Graceful)
}

// prepareDatabase applies the schema and, when enabled, seeds the catalog and
// the default user.
func prepareDatabase(ctx context.Context, pool *pgxpool.Pool, cfg SeedConfig) error {
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	if !cfg.Enabled {
		return nil
	}
	c, err := seed.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	if _, err := seed.New(postgres.NewSeedStore(pool), c).Run(ctx); err != nil {
		return errors.Wrap(err, "seed")
	}
	return nil
}

func newHealth(lg *zap.Logger, pool *pgxpool.Pool) *health.Health {
	hc := health.New(lg)
	hc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool),
		health.WithFailureThreshold(2),
	)
	hc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	hc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second),
		health.WithFailureThreshold(3),
	)
	return hc
}

// newAPI builds the repositories, services and admin gate behind the handler.
func newAPI(pool *pgxpool.Pool, m *app.Telemetry, cfg *Config) (*handler.Handler, error) {
	drinks := postgres.NewDrinkRepository(pool)
	users := postgres.NewUserRepository(pool)
	orderStore := postgres.NewOrderStore(pool)

	orders, err := order.NewService(orderStore, users,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	gate, err := auth.NewGate(auth.Config{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		Secret:       []byte(cfg.Admin.TokenSecret),
		TTL:          cfg.Admin.TokenTTL,
		Issuer:       cfg.Admin.Issuer,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create admin gate")
	}

	return handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		drinks,
		users,
		orders,
		profile.NewService(users, orderStore),
		gate,
	), nil
}

// middlewares wraps mux with the server chain, outermost first.
func middlewares(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, mux *http.ServeMux) http.Handler {
	routes := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           int((24 * time.Hour).Seconds()),
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.LoginMax,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.RemoteIP,
			Match:   httpmiddleware.MatchRoute(http.MethodPost, loginPath),
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, routes, m),
		httpmiddleware.LogRequests(routes),
		httpmiddleware.Labeler(routes),
	)
}

// serve runs srv until ctx is done or the listener fails. On cancellation
// readiness drops first so load balancers stop routing, then in-flight
// requests drain within the shutdown timeout.
func serve(ctx context.Context, lg *zap.Logger, srv *http.Server, hc *health.Health, cfg GracefulConfig) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hc.SetReady(false)
		if ctx.Err() != nil && cfg.ReadinessDelay > 0 {
			lg.Info("Draining before shutdown", zap.Duration("delay", cfg.ReadinessDelay))
			time.Sleep(cfg.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("Shutdown failed", zap.Error(err))
		}
		hc.Stop()
		lg.Info("Server stopped")
		return nil
	})
	return g.Wait()
}
