// Package profile реализует адаптер хранилища профилей и административные
// операции над учётными записями.
//
// Get используется точкой контроля доступа и никогда не кэширует результат:
// изменение роли, подписки или активности видно на следующем же запросе.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/streaming-gate/internal/lib/password"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/storage/repository"
)

var (
	// ErrNotFound профиля нет.
	ErrNotFound = errors.New("profile not found")
	// ErrUnavailable хранилище не ответило или ответило ошибкой.
	ErrUnavailable = errors.New("profile store unavailable")
	// ErrEmailTaken email занят.
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled учётная запись отключена администратором.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrInvalidRole неизвестная роль.
	ErrInvalidRole = errors.New("invalid role")
)

// Repository хранилище профилей.
type Repository interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	ListProfiles(ctx context.Context, limit, offset int) ([]*models.Profile, error)
}

// SessionRevoker отзывает все сессии учётной записи.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, accountID string) error
}

// ProvisionInput данные для создания учётной записи администратором.
type ProvisionInput struct {
	Email                 string
	FullName              string
	Password              string
	Role                  models.Role
	SubscriptionExpiresAt *time.Time
}

// UpdateInput частичное изменение учётной записи. Password передаётся открытым
// текстом и хешируется сервисом.
type UpdateInput struct {
	FullName                *string
	Email                   *string
	Password                *string
	Role                    *models.Role
	SubscriptionExpiresAt   *time.Time
	ClearSubscriptionExpiry bool
	IsActive                *bool
}

// Service сервис профилей.
type Service struct {
	repo     Repository
	sessions SessionRevoker
	log      *slog.Logger
	timeout  time.Duration
}

// NewService создаёт сервис. timeout ограничивает Get; ноль отключает ограничение.
func NewService(repo Repository, sessions SessionRevoker, log *slog.Logger, timeout time.Duration) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		log:      log,
		timeout:  timeout,
	}
}

// Get загружает профиль по идентификатору учётной записи.
//
// Любая ошибка, кроме ErrNotFound, отдаётся как ErrUnavailable, в том числе
// истечение таймаута.
func (s *Service) Get(ctx context.Context, accountID string) (*models.Profile, error) {
	const op = "profile.Get"
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	p, err := s.repo.GetProfile(ctx, accountID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return p, nil
}

// Authenticate проверяет email и пароль.
func (s *Service) Authenticate(ctx context.Context, email, pass string) (*models.Profile, error) {
	const op = "profile.Authenticate"
	p, err := s.repo.GetProfileByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	if err := password.CompareHash(p.PasswordHash, pass); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Error("stored password hash is broken", slog.String("account_id", p.ID), sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountDisabled)
	}
	return p, nil
}

// Provision создаёт учётную запись. Новая запись активна.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (*models.Profile, error) {
	const op = "profile.Provision"
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}
	hash, err := password.GetHash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Profile{
		Email:                 normalizeEmail(in.Email),
		FullName:              in.FullName,
		PasswordHash:          hash,
		Role:                  in.Role,
		SubscriptionExpiresAt: utcPtr(in.SubscriptionExpiresAt),
		IsActive:              true,
	}
	created, err := s.repo.CreateProfile(ctx, p)
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account provisioned", slog.String("account_id", created.ID), slog.String("role", string(created.Role)))
	return created, nil
}

// Update применяет изменения. Смена пароля отзывает все сессии учётной записи.
//
// Отключение и смена роли сессии не отзывают: профиль читается на каждом
// запросе, и точка контроля доступа сама выведет отключённого пользователя
// с уведомлением на странице входа.
func (s *Service) Update(ctx context.Context, accountID string, in UpdateInput) (*models.Profile, error) {
	const op = "profile.Update"
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}

	u := models.ProfileUpdate{
		FullName:                in.FullName,
		Role:                    in.Role,
		SubscriptionExpiresAt:   utcPtr(in.SubscriptionExpiresAt),
		ClearSubscriptionExpiry: in.ClearSubscriptionExpiry,
		IsActive:                in.IsActive,
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		u.Email = &email
	}
	if in.Password != nil {
		hash, err := password.GetHash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.PasswordHash = &hash
	}

	updated, err := s.repo.UpdateProfile(ctx, accountID, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}

	if in.Password != nil {
		s.revokeAll(ctx, accountID)
	}

	s.log.Info("account updated", slog.String("account_id", accountID),
		slog.Bool("active", updated.IsActive), slog.String("role", string(updated.Role)))
	return updated, nil
}

// OwnUpdateInput изменения, которые владелец вносит сам. Роль, срок подписки
// и активность владельцу недоступны.
type OwnUpdateInput struct {
	FullName        *string
	CurrentPassword string
	NewPassword     *string
}

// UpdateOwn изменяет имя или пароль владельца учётной записи.
//
// Смена пароля требует текущий пароль и отзывает все сессии, включая текущую.
func (s *Service) UpdateOwn(ctx context.Context, accountID string, in OwnUpdateInput) (*models.Profile, error) {
	const op = "profile.UpdateOwn"
	u := models.ProfileUpdate{FullName: in.FullName}

	if in.NewPassword != nil {
		current, err := s.repo.GetProfile(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapRepoErr(err))
		}
		if err := password.CompareHash(current.PasswordHash, in.CurrentPassword); err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		hash, err := password.GetHash(*in.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.PasswordHash = &hash
	}

	updated, err := s.repo.UpdateProfile(ctx, accountID, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}

	if in.NewPassword != nil {
		s.revokeAll(ctx, accountID)
	}
	s.log.Info("account updated by owner", slog.String("account_id", accountID),
		slog.Bool("password_changed", in.NewPassword != nil))
	return updated, nil
}

// Delete удаляет учётную запись и отзывает её сессии.
func (s *Service) Delete(ctx context.Context, accountID string) error {
	const op = "profile.Delete"
	if err := s.repo.DeleteProfile(ctx, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, mapRepoErr(err))
	}
	s.revokeAll(ctx, accountID)
	s.log.Info("account deleted", slog.String("account_id", accountID))
	return nil
}

// List возвращает страницу учётных записей.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	const op = "profile.List"
	list, err := s.repo.ListProfiles(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// revokeAll только логирует сбой: изменение профиля уже сохранено.
func (s *Service) revokeAll(ctx context.Context, accountID string) {
	if err := s.sessions.RevokeAll(ctx, accountID); err != nil {
		s.log.Warn("failed to revoke sessions", slog.String("account_id", accountID), sl.Err(err))
	}
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailTaken
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
