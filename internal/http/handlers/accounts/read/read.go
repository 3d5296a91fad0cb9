// Package read отдаёт учётную запись по идентификатору.
package read

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
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
)

// Service чтение учётной записи.
type Service interface {
	Get(ctx context.Context, accountID string) (*models.Profile, error)
}

// Handler обработчик GET /api/v1/admin/accounts/{id}.
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
// @Summary Учётная запись по ID
// @Tags Accounts
// @Produce  json
// @Param id path string true "ID учётной записи"
// @Success 200 {object} response.Response{data=models.Profile}
// @Failure 400 {object} response.Response "Некорректный ID"
// @Failure 404 {object} response.Response "Не найдена"
// @Failure 503 {object} response.Response "Хранилище недоступно"
// @Router /api/v1/admin/accounts/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if err := uuid.Validate(id); err != nil {
		log.Info("invalid account id", slog.String("id", id))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid account id"))
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	}
	if err != nil {
		log.Error("failed to read account", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("could not read account"))
		return
	}

	render.JSON(w, r, response.OKWithData(p))
}
