// Package login реализует HTTP-обработчик входа по email и паролю.
//
// При успехе выпускает сессионный токен, кладёт его в cookie и дублирует
// в теле ответа для клиентов, работающих через заголовок Authorization.
package login

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
	"github.com/magabrotheeeer/streaming-gate/internal/metrics"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
	"github.com/magabrotheeeer/streaming-gate/internal/session"
)

// Request входные данные.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Service проверка учётных данных.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*models.Profile, error)
}

// Sessions выпуск сессии.
type Sessions interface {
	Issue(accountID string) (string, *session.Identity, error)
}

// Handler обработчик входа.
type Handler struct {
	log      *slog.Logger
	service  Service
	sessions Sessions
	cookies  session.Cookies
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// New создаёт обработчик. m может быть nil.
func New(log *slog.Logger, service Service, sessions Sessions, cookies session.Cookies, m *metrics.Metrics) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
		cookies:  cookies,
		metrics:  m,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход по email и паролю
// @Description Проверяет учётные данные, выдаёт сессию в cookie и в теле ответа.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учётные данные"
// @Success 200 {object} response.Response "Сессия выдана"
// @Failure 400 {object} response.Response "Некорректный JSON"
// @Failure 401 {object} response.Response "Неверные учётные данные"
// @Failure 403 {object} response.Response "Учётная запись отключена"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 429 {object} response.Response "Слишком много попыток"
// @Failure 503 {object} response.Response "Хранилище недоступно"
// @Router /api/v1/auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	p, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrInvalidCredentials):
		h.metrics.ObserveLogin("invalid_credentials")
		log.Info("invalid credentials")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid email or password"))
		return
	case errors.Is(err, profile.ErrAccountDisabled):
		h.metrics.ObserveLogin("disabled")
		log.Info("login to disabled account")
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("account disabled"))
		return
	default:
		h.metrics.ObserveLogin("error")
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("service temporarily unavailable"))
		return
	}

	token, id, err := h.sessions.Issue(p.ID)
	if err != nil {
		h.metrics.ObserveLogin("error")
		log.Error("failed to issue session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	h.cookies.Set(w, token, id.ExpiresAt)
	h.metrics.ObserveLogin("ok")

	log.Info("login success", slog.String("account_id", p.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"account_id": p.ID,
		"role":       p.Role,
		"token":      token,
		"expires_at": id.ExpiresAt.UTC().Format(time.RFC3339),
	}))
}
