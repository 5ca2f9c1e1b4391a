package quitters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/quitters/internal/cache"
	"github.com/magabrotheeeer/quitters/internal/config"
	grpcserver "github.com/magabrotheeeer/quitters/internal/grpc/server"
	"github.com/magabrotheeeer/quitters/internal/hooks"
	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quitters/internal/lib/jwt"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/migrations"
	"github.com/magabrotheeeer/quitters/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/quitters/internal/services/auth"
	"github.com/magabrotheeeer/quitters/internal/services/events"
	"github.com/magabrotheeeer/quitters/internal/services/lastuse"
	"github.com/magabrotheeeer/quitters/internal/services/tracking"
	"github.com/magabrotheeeer/quitters/internal/services/users"
	"github.com/magabrotheeeer/quitters/internal/storage/repository"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthProbeInterval = 5 * time.Second
)

// Очереди, которые объявляются при подключении к брокеру.
var eventQueues = []rabbitmq.QueueConfig{
	{QueueName: "entries.created", RoutingKey: rabbitmq.RoutingEntryCreated},
	{QueueName: "entries.updated", RoutingKey: rabbitmq.RoutingEntryUpdated},
	{QueueName: "entries.deleted", RoutingKey: rabbitmq.RoutingEntryDeleted},
}

type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	amqpConn   *amqp.Connection
	publisher  *rabbitmq.Publisher
	reconciler *lastuse.Reconciler
	health     *grpcserver.HealthServer
}

// New поднимает зависимости и собирает приложение. Redis, RabbitMQ и
// gRPC-сервер необязательны и подключаются, только если заданы их адреса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "quitters.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
	}

	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Info("redis cache enabled", slog.String("address", cfg.AddressRedis))
	}

	if cfg.RabbitMQ.URL != "" {
		app.amqpConn, err = rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(app.amqpConn, cfg.Exchange, eventQueues)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.Exchange)
		logger.Info("event publishing enabled", slog.String("exchange", cfg.Exchange))
	}

	loc := cfg.Location()
	bus := hooks.NewBus(logger)

	// Порядок регистрации: сначала пересчёт last_use_date, затем сброс
	// кеша статистики, затем публикация наружу.
	maintainer := lastuse.New(db, lastuse.Policy{
		CountNicotineReplacement: cfg.CountNicotineReplacement,
	}, logger)
	maintainer.Register(bus)
	if app.cache != nil {
		events.NewInvalidator(app.cache).Register(bus)
	}
	if app.publisher != nil {
		events.NewPublisher(app.publisher).Register(bus)
	}

	app.reconciler = lastuse.NewReconciler(maintainer, db, app.cache, cfg.Reconciler.Interval, logger)

	if cfg.AddressGRPC != "" {
		app.health, err = grpcserver.NewHealthServer(cfg.AddressGRPC, db, healthProbeInterval, logger)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:     authservice.New(db, jwtMaker, logger),
		Tracking: tracking.New(db, app.cache, bus, cfg.CacheTTL, logger),
		Users:    users.New(db, app.cache, cfg.CacheTTL, loc, logger),
		DB:       db,
		Limiter:  middlewarectx.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// Run запускает HTTP-сервер и фоновые задачи и блокируется до отмены ctx
// или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.reconciler.Run(ctx)
	}()

	errCh := make(chan error, 2)
	if a.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.health.Run(ctx); err != nil {
				errCh <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}

	cancel()
	wg.Wait()
	a.close()
	return runErr
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis client", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
