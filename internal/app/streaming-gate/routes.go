// Package streaminggate собирает HTTP-приложение шлюза: зависимости, маршруты
// и жизненный цикл сервера.
package streaminggate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/streaming-gate/docs"

	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/accounts/create"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/accounts/list"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/accounts/read"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/accounts/remove"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/accounts/update"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/health"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/me"
	"github.com/magabrotheeeer/streaming-gate/internal/http/handlers/pages"
	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-gate/internal/metrics"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
	"github.com/magabrotheeeer/streaming-gate/internal/session"
)

// Deps зависимости маршрутов.
type Deps struct {
	Log           *slog.Logger
	Gate          *middlewarectx.Gate
	Sessions      *session.Manager
	Cookies       session.Cookies
	Profiles      *profile.Service
	LoginLimiter  *middlewarectx.IPLimiter
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Health        map[string]health.Pinger
	HealthTimeout time.Duration
	LoginPath     string
	HomePath      string
	AdminHomePath string
	ExpiredPath   string
}

// RegisterRoutes регистрирует маршруты. Gate стоит глобально: ни один
// обработчик не выполняется без вердикта.
func RegisterRoutes(r chi.Router, d Deps) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Gate.Middleware,
	)

	r.Get("/healthz", health.New(d.Log, d.Health, d.HealthTimeout).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// Страницы, на которые ведут редиректы.
	r.Get(d.LoginPath, pages.NewLogin(d.Log).ServeHTTP)
	r.Get(d.ExpiredPath, pages.New(d.Log, "Subscription expired").ServeHTTP)
	r.Get(d.HomePath, pages.New(d.Log, "Catalog").ServeHTTP)
	r.Get(d.AdminHomePath, pages.New(d.Log, "Administration").ServeHTTP)
	r.Get("/watch/*", pages.New(d.Log, "Player").ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middlewarectx.RateLimit(d.Log, d.LoginLimiter)).
				Post("/login", login.New(d.Log, d.Profiles, d.Sessions, d.Cookies, d.Metrics).ServeHTTP)
			r.Post("/logout", logout.New(d.Log, d.Sessions, d.Cookies).ServeHTTP)
		})

		r.Get("/me", me.New(d.Log).ServeHTTP)
		r.Patch("/me", me.NewUpdate(d.Log, d.Profiles, d.Cookies).ServeHTTP)

		r.Route("/admin/accounts", func(r chi.Router) {
			r.Get("/", list.New(d.Log, d.Profiles).ServeHTTP)
			r.Post("/", create.New(d.Log, d.Profiles).ServeHTTP)
			r.Get("/{id}", read.New(d.Log, d.Profiles).ServeHTTP)
			r.Patch("/{id}", update.New(d.Log, d.Profiles).ServeHTTP)
			r.Delete("/{id}", remove.New(d.Log, d.Profiles).ServeHTTP)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
}
