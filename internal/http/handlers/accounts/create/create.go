// Package create реализует создание учётной записи администратором.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
)

// Request тело запроса. SubscriptionExpiresAt в RFC 3339; пустое значение - бессрочная подписка.
type Request struct {
	Email                 string     `json:"email" validate:"required,email"`
	FullName              string     `json:"full_name" validate:"max=200"`
	Password              string     `json:"password" validate:"required,min=6,max=72"`
	Role                  string     `json:"role" validate:"omitempty,oneof=admin user"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
}

// Service создание учётной записи.
type Service interface {
	Provision(ctx context.Context, in profile.ProvisionInput) (*models.Profile, error)
}

// Handler обработчик POST /api/v1/admin/accounts.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание учётной записи
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Param request body Request true "Новая учётная запись"
// @Success 201 {object} response.Response{data=models.Profile} "Создана"
// @Failure 400 {object} response.Response "Некорректный JSON"
// @Failure 409 {object} response.Response "Email занят"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /api/v1/admin/accounts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	created, err := h.service.Provision(r.Context(), profile.ProvisionInput{
		Email:                 req.Email,
		FullName:              req.FullName,
		Password:              req.Password,
		Role:                  models.Role(req.Role),
		SubscriptionExpiresAt: req.SubscriptionExpiresAt,
	})
	if errors.Is(err, profile.ErrEmailTaken) {
		log.Info("email already taken")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("email already taken"))
		return
	}
	if err != nil {
		log.Error("failed to provision account", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create account"))
		return
	}

	log.Info("account created", slog.String("account_id", created.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}
