// Package remove удаляет учётную запись. Все её сессии отзываются сервисом.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
)

// Service удаление учётной записи.
type Service interface {
	Delete(ctx context.Context, accountID string) error
}

// Handler обработчик DELETE /api/v1/admin/accounts/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление учётной записи
// @Description Удаляет учётную запись и завершает все её сессии.
// @Tags Accounts
// @Produce  json
// @Param id path string true "ID учётной записи"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "Некорректный ID"
// @Failure 404 {object} response.Response "Не найдена"
// @Router /api/v1/admin/accounts/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if err := uuid.Validate(id); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid account id"))
		return
	}

	err := h.service.Delete(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete account", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete account"))
		return
	}

	log.Info("account deleted", slog.String("account_id", id))
	render.JSON(w, r, response.OK())
}
