// Package logout реализует выход: текущая сессия аннулируется, cookie удаляется.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/session"
)

// Sessions аннулирование сессии.
type Sessions interface {
	Invalidate(ctx context.Context, id *session.Identity) error
}

// Handler обработчик выхода.
type Handler struct {
	log      *slog.Logger
	sessions Sessions
	cookies  session.Cookies
}

// New создаёт обработчик.
func New(log *slog.Logger, sessions Sessions, cookies session.Cookies) *Handler {
	return &Handler{
		log:      log,
		sessions: sessions,
		cookies:  cookies,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Аннулирует текущую сессию и удаляет cookie. Без сессии просто удаляет cookie.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Сессия завершена"
// @Failure 503 {object} response.Response "Хранилище сессий недоступно"
// @Router /api/v1/auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	h.cookies.Clear(w)

	caller, ok := middlewarectx.CallerFromContext(r.Context())
	if !ok || caller.Identity == nil {
		render.JSON(w, r, response.OK())
		return
	}

	if err := h.sessions.Invalidate(r.Context(), caller.Identity); err != nil {
		log.Error("failed to invalidate session", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("could not terminate session"))
		return
	}

	log.Info("logout", slog.String("account_id", caller.Identity.AccountID))
	render.JSON(w, r, response.OK())
}
