// Package api wires the storefront backend: HTTP API, WebSocket gateway,
// and the in-process notification core.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shortland/backend/internal/app/authservice"
	"github.com/shortland/backend/internal/app/catalogservice"
	"github.com/shortland/backend/internal/app/orderservice"
	"github.com/shortland/backend/internal/clock"
	"github.com/shortland/backend/internal/gateway"
	"github.com/shortland/backend/internal/notify"
	"github.com/shortland/backend/internal/shared/config"
	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/metrics"
	pg "github.com/shortland/backend/internal/shared/postgres"
	rds "github.com/shortland/backend/internal/shared/redis"
	"github.com/shortland/backend/internal/shared/web"
)

// Run wires the server and blocks until ctx is cancelled. It returns the
// first terminal error (server or startup failure).
func Run(ctx context.Context, configPath string, port int, maxConcurrent int) error {
	log := logger.NewLogger("shortland-api")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}
	if port != 0 {
		cfg.HTTP.Port = port
	}

	// Postgres
	pool, err := pg.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return err
	}
	defer pool.Close()

	// Redis (catalog cache)
	redisClient, err := rds.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err)
		return err
	}
	defer redisClient.Close()

	// Notification core: one registry instance for the process lifetime, a
	// gateway owning the sockets, and a dispatcher fanning events out.
	registry := notify.NewRegistry()
	gw := gateway.New(registry, log)
	dispatcher := notify.NewDispatcher(registry, gw, log)
	defer func() {
		dispatcher.Close()
		gw.Close()
	}()

	// Repositories, unit of work, application services
	uow := pg.NewUnitOfWork(pool)
	ordersRepo := pg.NewOrdersRepo()
	usersRepo := pg.NewUsersRepo()
	productsRepo := pg.NewProductsRepo()

	authSvc := authservice.New(uow, usersRepo, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL.Std(), clock.System(), log)
	orderSvc := orderservice.New(uow, ordersRepo, dispatcher, log)
	catalogSvc := catalogservice.New(uow, productsRepo, rds.NewCache(redisClient), cfg.Redis.CacheTTL.Std(), log)

	// Router. The concurrency limiter guards the request/response API only:
	// /ws holds connections open for their whole lifetime and would starve
	// the semaphore.
	r := chi.NewRouter()
	r.Use(web.RequestID(log))

	r.Route("/api", func(r chi.Router) {
		r.Use(withConcurrencyLimit(maxConcurrent))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			web.JSONResponse(req.Context(), log, w, http.StatusOK, map[string]string{
				"status":  "ok",
				"message": "Shortland API is running",
			})
		})

		authservice.NewHTTPHandler(authSvc, log).Register(r)
		catalogservice.NewHTTPHandler(catalogSvc, log).RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(authSvc.Authenticate)
			orderservice.NewHTTPHandler(orderSvc, log).Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authSvc.Authenticate, authSvc.RequireAdmin)
			catalogservice.NewHTTPHandler(catalogSvc, log).RegisterAdmin(r)
		})
	})

	r.Get("/ws", gw.Handler)
	r.Handle("/metrics", metrics.Handler())

	// No global read/write timeouts: /ws carries long-lived connections.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Shortland API started on port %d", cfg.HTTP.Port),
		map[string]any{"port": cfg.HTTP.Port, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		// http.ErrServerClosed is returned on Shutdown; treat that as clean exit.
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		// Graceful HTTP shutdown (drain keep-alives / in-flight requests).
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx) // best-effort
		return nil
	case err := <-errCh:
		return err
	}
}

// withConcurrencyLimit wraps handlers with a semaphore-based limiter. It
// blocks until capacity is available, which provides natural backpressure.
func withConcurrencyLimit(n int) func(http.Handler) http.Handler {
	sem := make(chan struct{}, n)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		})
	}
}
