// Package update реализует частичное изменение учётной записи администратором:
// роль, срок подписки, активность, имя, email и пароль.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
)

// Request тело PATCH. Отсутствующие поля не меняются.
// ClearSubscriptionExpiry делает подписку бессрочной.
type Request struct {
	FullName                *string    `json:"full_name" validate:"omitempty,max=200"`
	Email                   *string    `json:"email" validate:"omitempty,email"`
	Password                *string    `json:"password" validate:"omitempty,min=6,max=72"`
	Role                    *string    `json:"role" validate:"omitempty,oneof=admin user"`
	SubscriptionExpiresAt   *time.Time `json:"subscription_expires_at"`
	ClearSubscriptionExpiry bool       `json:"clear_subscription_expiry"`
	IsActive                *bool      `json:"is_active"`
}

func (r Request) empty() bool {
	return r.FullName == nil && r.Email == nil && r.Password == nil && r.Role == nil &&
		r.SubscriptionExpiresAt == nil && !r.ClearSubscriptionExpiry && r.IsActive == nil
}

// Service изменение учётной записи.
type Service interface {
	Update(ctx context.Context, accountID string, in profile.UpdateInput) (*models.Profile, error)
}

// Handler обработчик PATCH /api/v1/admin/accounts/{id}.
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
// @Summary Частичное изменение учётной записи
// @Description Роль, срок подписки, активность, имя, email, пароль. Отсутствующие поля не меняются.
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Param id path string true "ID учётной записи"
// @Param request body Request true "Изменения"
// @Success 200 {object} response.Response{data=models.Profile}
// @Failure 400 {object} response.Response "Некорректный запрос"
// @Failure 404 {object} response.Response "Не найдена"
// @Failure 409 {object} response.Response "Email занят"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /api/v1/admin/accounts/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accounts.update"

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
	if req.empty() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("nothing to update"))
		return
	}
	if req.ClearSubscriptionExpiry && req.SubscriptionExpiresAt != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("subscription_expires_at conflicts with clear_subscription_expiry"))
		return
	}

	in := profile.UpdateInput{
		FullName:                req.FullName,
		Email:                   req.Email,
		Password:                req.Password,
		SubscriptionExpiresAt:   req.SubscriptionExpiresAt,
		ClearSubscriptionExpiry: req.ClearSubscriptionExpiry,
		IsActive:                req.IsActive,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}

	updated, err := h.service.Update(r.Context(), id, in)
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	case errors.Is(err, profile.ErrEmailTaken):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("email already taken"))
		return
	default:
		log.Error("failed to update account", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update account"))
		return
	}

	log.Info("account updated", slog.String("account_id", id))
	render.JSON(w, r, response.OKWithData(updated))
}
