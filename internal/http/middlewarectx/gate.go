// Package middlewarectx содержит HTTP middleware шлюза: точку контроля доступа
// и ограничение частоты запросов.
//
// Gate выполняется на каждом запросе до обработчика. Он разрешает личность по
// сессионной cookie, при необходимости загружает профиль, получает вердикт у
// access.Decide и либо пропускает запрос дальше, либо отвечает редиректом.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/streaming-gate/internal/access"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/metrics"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/routes"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
	"github.com/magabrotheeeer/streaming-gate/internal/session"
	"github.com/magabrotheeeer/streaming-gate/internal/subscription"
)

// Key тип ключей контекста запроса.
type Key string

// CallerKey ключ, под которым Gate кладёт Caller в контекст.
const CallerKey Key = "caller"

// DisabledParam параметр страницы входа, сообщающий об отключённом аккаунте.
const DisabledParam = "disabled"

// Caller то, что Gate узнал о вызывающем. Для публичных маршрутов Profile nil.
type Caller struct {
	Identity     *session.Identity
	Profile      *models.Profile
	Class        routes.Class
	Subscription subscription.State
}

// CallerFromContext возвращает Caller, положенный Gate.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(CallerKey).(*Caller)
	return c, ok && c != nil
}

// Sessions хранилище учётных данных.
type Sessions interface {
	Resolve(ctx context.Context, token string) (*session.Identity, error)
	Refresh(id *session.Identity) (string, *session.Identity, bool, error)
	Invalidate(ctx context.Context, id *session.Identity) error
}

// Profiles хранилище профилей.
type Profiles interface {
	Get(ctx context.Context, accountID string) (*models.Profile, error)
}

// Events публикация событий безопасности.
type Events interface {
	SessionTerminated(ctx context.Context, event models.SessionTerminated) error
}

// GateConfig адреса редиректов и таймауты.
type GateConfig struct {
	IdentityTimeout         time.Duration
	LoginPath               string
	HomePath                string
	AdminHomePath           string
	SubscriptionExpiredPath string
}

// Gate точка контроля доступа.
type Gate struct {
	log      *slog.Logger
	table    *routes.Table
	cookies  session.Cookies
	sessions Sessions
	profiles Profiles
	events   Events
	metrics  *metrics.Metrics
	cfg      GateConfig
	now      func() time.Time
}

// NewGate создаёт точку контроля доступа. events и m могут быть nil.
func NewGate(
	log *slog.Logger,
	table *routes.Table,
	cookies session.Cookies,
	sessions Sessions,
	profiles Profiles,
	events Events,
	m *metrics.Metrics,
	cfg GateConfig,
) *Gate {
	return &Gate{
		log:      log,
		table:    table,
		cookies:  cookies,
		sessions: sessions,
		profiles: profiles,
		events:   events,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени для оценки подписки.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Middleware оборачивает next проверкой доступа.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.Gate"
		log := g.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
		)

		class := g.table.Classify(r.URL.Path)
		loginRoute := cleanPath(r.URL.Path) == cleanPath(g.cfg.LoginPath)

		id := g.resolve(r, log)

		var p *models.Profile
		if access.NeedsProfile(class, loginRoute, id != nil) {
			p = g.loadProfile(r.Context(), id.AccountID, log)
		}

		state := subscription.Active
		if p != nil {
			state = subscription.Evaluate(p.SubscriptionExpiresAt, g.now())
		}

		verdict := access.Decide(access.Input{
			Class:        class,
			LoginRoute:   loginRoute,
			HasIdentity:  id != nil,
			Profile:      p,
			Subscription: state,
		})
		g.metrics.ObserveDecision(string(class), string(verdict.Action))

		if verdict.ForceSignOut {
			g.signOut(w, r, id, verdict.Reason, log)
		} else {
			g.refresh(w, id, log)
		}

		if verdict.Action == access.Allow {
			caller := &Caller{Identity: id, Profile: p, Class: class, Subscription: state}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CallerKey, caller)))
			return
		}

		log.Info("access denied",
			slog.String("action", string(verdict.Action)),
			slog.String("reason", verdict.Reason),
			slog.String("class", string(class)),
		)
		http.Redirect(w, r, g.target(verdict.Action), http.StatusTemporaryRedirect)
	})
}

// resolve разрешает личность. Сбой хранилища сессий равносилен анонимному запросу.
func (g *Gate) resolve(r *http.Request, log *slog.Logger) *session.Identity {
	token := g.cookies.Credential(r)
	if token == "" {
		return nil
	}

	ctx, cancel := g.identityContext(r.Context())
	defer cancel()

	id, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		log.Warn("failed to resolve session, treating as anonymous", sl.Err(err))
		g.metrics.ObserveIdentityError()
		return nil
	}
	return id
}

// identityContext ограничивает обращение к хранилищу сессий IdentityTimeout.
func (g *Gate) identityContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.IdentityTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.cfg.IdentityTimeout)
}

// loadProfile отсутствие профиля и сбой хранилища одинаково дают nil.
func (g *Gate) loadProfile(ctx context.Context, accountID string, log *slog.Logger) *models.Profile {
	started := time.Now()
	p, err := g.profiles.Get(ctx, accountID)
	switch {
	case err == nil:
		g.metrics.ObserveProfileLookup("found", started)
		return p
	case errors.Is(err, profile.ErrNotFound):
		g.metrics.ObserveProfileLookup("not_found", started)
		log.Info("no profile for identity", slog.String("account_id", accountID))
	default:
		g.metrics.ObserveProfileLookup("error", started)
		log.Error("failed to load profile", slog.String("account_id", accountID), sl.Err(err))
	}
	return nil
}

// signOut аннулирует сессию до отправки редиректа.
func (g *Gate) signOut(w http.ResponseWriter, r *http.Request, id *session.Identity, reason string, log *slog.Logger) {
	g.cookies.Clear(w)
	if id == nil {
		return
	}
	ctx, cancel := g.identityContext(r.Context())
	err := g.sessions.Invalidate(ctx, id)
	cancel()
	if err != nil {
		log.Error("failed to invalidate session", slog.String("account_id", id.AccountID), sl.Err(err))
	}
	g.metrics.ObserveSignOut()
	log.Info("session terminated", slog.String("account_id", id.AccountID), slog.String("reason", reason))

	if g.events == nil {
		return
	}
	event := models.SessionTerminated{
		AccountID:  id.AccountID,
		SessionID:  id.SessionID,
		Reason:     reason,
		Path:       r.URL.Path,
		OccurredAt: g.now().UTC(),
	}
	if err := g.events.SessionTerminated(r.Context(), event); err != nil {
		log.Warn("failed to publish session event", sl.Err(err))
	}
}

// refresh перевыпускает cookie, если токен скоро истечёт.
func (g *Gate) refresh(w http.ResponseWriter, id *session.Identity, log *slog.Logger) {
	if id == nil {
		return
	}
	token, fresh, ok, err := g.sessions.Refresh(id)
	if err != nil {
		log.Warn("failed to refresh session", sl.Err(err))
		return
	}
	if ok {
		g.cookies.Set(w, token, fresh.ExpiresAt)
	}
}

func (g *Gate) target(action access.Action) string {
	switch action {
	case access.RedirectLoginDisabled:
		return g.cfg.LoginPath + "?" + url.Values{DisabledParam: {"1"}}.Encode()
	case access.RedirectHome:
		return g.cfg.HomePath
	case access.RedirectAdminHome:
		return g.cfg.AdminHomePath
	case access.RedirectSubscriptionExpired:
		return g.cfg.SubscriptionExpiredPath
	default:
		return g.cfg.LoginPath
	}
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
