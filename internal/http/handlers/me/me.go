// Package me отдаёт профиль вызывающего и состояние его подписки.
package me

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/subscription"
)

// SubscriptionView состояние подписки для отображения.
type SubscriptionView struct {
	State            subscription.State `json:"state"`
	ExpiresAt        *time.Time         `json:"expires_at"`
	RemainingSeconds int64              `json:"remaining_seconds"`
}

// View ответ обработчика.
type View struct {
	Profile      *models.Profile  `json:"profile"`
	Subscription SubscriptionView `json:"subscription"`
}

// Handler обработчик GET /api/v1/me.
type Handler struct {
	log *slog.Logger
	now func() time.Time
}

// New создаёт обработчик.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log, now: time.Now}
}

// ServeHTTP godoc
// @Summary Профиль вызывающего
// @Description Возвращает профиль и состояние подписки текущего пользователя.
// @Tags Me
// @Produce  json
// @Success 200 {object} response.Response{data=View} "Профиль"
// @Failure 401 {object} response.Response "Нет сессии"
// @Router /api/v1/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFromContext(r.Context())
	if !ok || caller.Profile == nil {
		log.Error("no caller profile in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	p := caller.Profile
	now := h.now()
	render.JSON(w, r, response.OKWithData(View{
		Profile: p,
		Subscription: SubscriptionView{
			State:            subscription.Evaluate(p.SubscriptionExpiresAt, now),
			ExpiresAt:        p.SubscriptionExpiresAt,
			RemainingSeconds: int64(subscription.Remaining(p.SubscriptionExpiresAt, now) / time.Second),
		},
	}))
}
