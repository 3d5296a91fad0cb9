// Package pages отдаёт страницы-заглушки для адресов, на которые ведут
// редиректы точки контроля доступа. Вёрстка приложения вне этого сервиса.
package pages

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
)

// Handler рендерит заглушку с заголовком title.
type Handler struct {
	log   *slog.Logger
	title string
}

// New создаёт обработчик страницы.
func New(log *slog.Logger, title string) *Handler {
	return &Handler{log: log, title: title}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := "<h1>" + html.EscapeString(h.title) + "</h1>"
	if c, ok := middlewarectx.CallerFromContext(r.Context()); ok && c.Profile != nil {
		body += fmt.Sprintf("<p>%s (%s)</p>", html.EscapeString(c.Profile.Email), html.EscapeString(string(c.Profile.Role)))
	}
	render.HTML(w, r, "<!doctype html><html><body>"+body+"</body></html>")
}

// Login страница входа. Показывает уведомление об отключённом аккаунте.
type Login struct {
	log *slog.Logger
}

// NewLogin создаёт обработчик страницы входа.
func NewLogin(log *slog.Logger) *Login {
	return &Login{log: log}
}

func (h *Login) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := "<h1>Sign in</h1>"
	if r.URL.Query().Get(middlewarectx.DisabledParam) == "1" {
		body += `<p class="notice">Your account has been disabled. Contact support.</p>`
	}
	render.HTML(w, r, "<!doctype html><html><body>"+body+"</body></html>")
}
