// Package list отдаёт страницу учётных записей.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service постраничный список учётных записей.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Profile, error)
}

// Handler обработчик GET /api/v1/admin/accounts?limit=&offset=.
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
// @Summary Список учётных записей
// @Tags Accounts
// @Produce  json
// @Param limit query int false "Размер страницы (1-200)" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "Некорректные параметры"
// @Router /api/v1/admin/accounts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit <= 0 || limit > maxLimit {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("limit must be between 1 and 200"))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("offset must be non-negative"))
		return
	}

	accounts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list accounts", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list accounts"))
		return
	}
	if accounts == nil {
		accounts = []*models.Profile{}
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"accounts": accounts,
		"limit":    limit,
		"offset":   offset,
	}))
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
