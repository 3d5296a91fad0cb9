// Package session реализует хранилище учётных данных: разрешение личности по
// сессионному токену, продление токена и аннулирование сессий.
//
// Токен - подписанный JWT. Аннулированные сессии хранятся в Redis: по jti
// до истечения токена и по учётной записи (все токены, выпущенные раньше
// отметки времени).
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/streaming-gate/internal/lib/jwt"
)

// Identity личность, разрешённая из действительного токена.
type Identity struct {
	AccountID string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Store хранилище отозванных сессий. Реализуется cache.Cache.
type Store interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Manager выпускает, проверяет, продлевает и аннулирует сессии.
type Manager struct {
	maker         jwt.Maker
	store         Store
	tokenTTL      time.Duration
	refreshBefore time.Duration
	now           func() time.Time
}

// NewManager создаёт Manager. refreshBefore - остаток срока жизни токена,
// при котором он перевыпускается.
func NewManager(maker jwt.Maker, store Store, tokenTTL, refreshBefore time.Duration) *Manager {
	return &Manager{
		maker:         maker,
		store:         store,
		tokenTTL:      tokenTTL,
		refreshBefore: refreshBefore,
		now:           time.Now,
	}
}

// WithClock подменяет источник времени.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func revokedSessionKey(sessionID string) string {
	return "session:revoked:" + sessionID
}

func revokedBeforeKey(accountID string) string {
	return "session:revoked_before:" + accountID
}

// Issue выпускает новый токен для учётной записи.
func (m *Manager) Issue(accountID string) (string, *Identity, error) {
	const op = "session.Issue"
	token, claims, err := m.maker.GenerateToken(accountID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, identityFromClaims(claims), nil
}

// Resolve разрешает личность по токену.
//
// Отсутствующий, испорченный, просроченный или отозванный токен - это
// анонимный запрос: (nil, nil). Ошибка возвращается только при сбое хранилища,
// вызывающая сторона обязана трактовать её как анонимность.
func (m *Manager) Resolve(ctx context.Context, token string) (*Identity, error) {
	const op = "session.Resolve"
	if token == "" {
		return nil, nil
	}
	claims, err := m.maker.ParseToken(token)
	if err != nil {
		return nil, nil
	}
	id := identityFromClaims(claims)

	revoked, err := m.store.Exists(ctx, revokedSessionKey(id.SessionID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, nil
	}

	var before int64
	found, err := m.store.Get(ctx, revokedBeforeKey(id.AccountID), &before)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if found && id.IssuedAt.UnixMicro() < before {
		return nil, nil
	}
	return id, nil
}

// Refresh перевыпускает токен, если до его истечения осталось меньше
// refreshBefore. Старый токен не отзывается и доживает свой срок: параллельные
// запросы со старой cookie не должны превращаться в анонимные.
func (m *Manager) Refresh(id *Identity) (string, *Identity, bool, error) {
	const op = "session.Refresh"
	if id == nil {
		return "", nil, false, nil
	}
	if id.ExpiresAt.Sub(m.now()) >= m.refreshBefore {
		return "", nil, false, nil
	}
	token, fresh, err := m.Issue(id.AccountID)
	if err != nil {
		return "", nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return token, fresh, true, nil
}

// Invalidate отзывает одну сессию до истечения её токена.
func (m *Manager) Invalidate(ctx context.Context, id *Identity) error {
	const op = "session.Invalidate"
	if id == nil {
		return nil
	}
	ttl := id.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.store.Set(ctx, revokedSessionKey(id.SessionID), 1, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RevokeAll отзывает все сессии учётной записи, выпущенные раньше текущего
// момента. Отметка хранится в микросекундах, сессия, выпущенная следом, действительна.
func (m *Manager) RevokeAll(ctx context.Context, accountID string) error {
	const op = "session.RevokeAll"
	if err := m.store.Set(ctx, revokedBeforeKey(accountID), m.now().UnixMicro(), m.tokenTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TTL время жизни выпускаемых токенов.
func (m *Manager) TTL() time.Duration {
	return m.tokenTTL
}

func identityFromClaims(c *jwt.CustomClaims) *Identity {
	id := &Identity{
		AccountID: c.AccountID(),
		SessionID: c.ID,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}
