package streaminggate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/streaming-gate/internal/cache"
	"github.com/magabrotheeeer/streaming-gate/internal/config"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/health"
	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/metrics"
	"github.com/magabrotheeeer/streaming-gate/internal/migrations"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/routes"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
	"github.com/magabrotheeeer/streaming-gate/internal/session"
	"github.com/magabrotheeeer/streaming-gate/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

type eventPublisher interface {
	SessionTerminated(ctx context.Context, event models.SessionTerminated) error
	Close() error
}

// App HTTP-приложение шлюза.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	events eventPublisher
}

// New поднимает зависимости, накатывает миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "streaminggate.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table, err := routeTable(cfg.Gate)
	if err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	maker := jwt.NewJWTMaker(cfg.SecretKey, cfg.TokenTTL)
	sessions := session.NewManager(maker, cacheRedis, cfg.TokenTTL, cfg.RefreshBefore)
	profiles := profile.NewService(db, sessions, logger, cfg.ProfileTimeout)
	events := newEvents(cfg.RabbitMQ, logger)
	m := metrics.New(prometheus.DefaultRegisterer)
	cookies := session.Cookies{Name: cfg.CookieName, Secure: cfg.CookieSecure}

	gate := middlewarectx.NewGate(logger, table, cookies, sessions, profiles, events, m, middlewarectx.GateConfig{
		IdentityTimeout:         cfg.IdentityTimeout,
		LoginPath:               cfg.LoginPath,
		HomePath:                cfg.HomePath,
		AdminHomePath:           cfg.AdminHomePath,
		SubscriptionExpiredPath: cfg.SubscriptionExpiredPath,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Log:           logger,
		Gate:          gate,
		Sessions:      sessions,
		Cookies:       cookies,
		Profiles:      profiles,
		LoginLimiter:  middlewarectx.NewIPLimiter(cfg.RPS, cfg.Burst),
		Metrics:       m,
		Gatherer:      prometheus.DefaultGatherer,
		Health:        map[string]health.Pinger{"postgres": db, "redis": cacheRedis},
		HealthTimeout: cfg.TimeoutRedis + time.Second,
		LoginPath:     cfg.LoginPath,
		HomePath:      cfg.HomePath,
		AdminHomePath: cfg.AdminHomePath,
		ExpiredPath:   cfg.SubscriptionExpiredPath,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		events: events,
	}, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.events.Close(); err != nil {
		a.logger.Warn("failed to close event publisher", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close postgres", sl.Err(err))
	}
}

// newEvents без URL или при недоступном брокере события не публикуются:
// доступ к сервису не зависит от RabbitMQ.
func newEvents(cfg config.RabbitMQ, logger *slog.Logger) eventPublisher {
	if cfg.URL == "" {
		logger.Info("rabbitmq url is not set, security events disabled")
		return rabbitmq.Noop{}
	}
	pub, err := rabbitmq.NewPublisher(cfg.URL, cfg.Exchange, cfg.Retries, cfg.Delay)
	if err != nil {
		logger.Error("failed to connect to rabbitmq, security events disabled", sl.Err(err))
		return rabbitmq.Noop{}
	}
	return pub
}

// routeTable добавляет в таблицу настроенные страницы входа и истёкшей подписки,
// если они не совпадают с путями по умолчанию. Обе страницы обязаны быть публичными.
// Страница внутри admin-only раздела открыла бы часть этого раздела, поэтому
// такая конфигурация отвергается.
func routeTable(cfg config.Gate) (*routes.Table, error) {
	const op = "streaminggate.routeTable"
	def := routes.Default()
	rules := def.Rules()
	for _, p := range []string{cfg.LoginPath, cfg.SubscriptionExpiredPath} {
		switch def.Classify(p) {
		case routes.Public:
		case routes.AdminOnly:
			return nil, fmt.Errorf("%s: path %s lies inside an admin-only prefix", op, p)
		default:
			rules = append(rules, routes.Rule{Prefix: p, Class: routes.Public})
		}
	}
	return routes.New(rules...)
}
