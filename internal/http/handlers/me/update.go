package me

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-gate/internal/http/response"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
	"github.com/magabrotheeeer/streaming-gate/internal/session"
)

// UpdateRequest тело PATCH /api/v1/me.
type UpdateRequest struct {
	FullName        *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     *string `json:"new_password" validate:"omitempty,min=6,max=72"`
}

// OwnUpdater изменение собственной учётной записи.
type OwnUpdater interface {
	UpdateOwn(ctx context.Context, accountID string, in profile.OwnUpdateInput) (*models.Profile, error)
}

// UpdateHandler обработчик PATCH /api/v1/me.
type UpdateHandler struct {
	log      *slog.Logger
	service  OwnUpdater
	cookies  session.Cookies
	validate *validator.Validate
}

// NewUpdate создаёт обработчик.
func NewUpdate(log *slog.Logger, service OwnUpdater, cookies session.Cookies) *UpdateHandler {
	return &UpdateHandler{
		log:      log,
		service:  service,
		cookies:  cookies,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение своего профиля
// @Description Меняет имя или пароль. Смена пароля требует текущий пароль и завершает все сессии.
// @Tags Me
// @Accept  json
// @Produce  json
// @Param request body UpdateRequest true "Изменения"
// @Success 200 {object} response.Response{data=models.Profile} "Профиль обновлён"
// @Failure 400 {object} response.Response "Некорректный запрос"
// @Failure 403 {object} response.Response "Неверный текущий пароль"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /api/v1/me [patch]
func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.me.update"

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

	var req UpdateRequest
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
	if req.FullName == nil && req.NewPassword == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("nothing to update"))
		return
	}
	if req.NewPassword != nil && req.CurrentPassword == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("current_password is required to change password"))
		return
	}

	accountID := caller.Profile.ID
	updated, err := h.service.UpdateOwn(r.Context(), accountID, profile.OwnUpdateInput{
		FullName:        req.FullName,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrInvalidCredentials):
		log.Info("wrong current password", slog.String("account_id", accountID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("current password is incorrect"))
		return
	case errors.Is(err, profile.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	default:
		log.Error("failed to update own account", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update account"))
		return
	}

	// После смены пароля все сессии отозваны, текущая тоже.
	if req.NewPassword != nil {
		h.cookies.Clear(w)
	}
	log.Info("account updated by owner", slog.String("account_id", accountID))
	render.JSON(w, r, response.OKWithData(updated))
}
