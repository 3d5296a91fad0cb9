package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/streaming-gate/internal/models"
)

const profileColumns = `id, email, full_name, password_hash, role, subscription_expires_at,
			      is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	var role string
	var expiresAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &role,
		&expiresAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		p.SubscriptionExpiresAt = &t
	}
	return p, nil
}

// GetProfile возвращает профиль по идентификатору.
func (s *Storage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + `
			  FROM accounts
			  WHERE id = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetProfileByEmail возвращает профиль по email (без учёта регистра).
func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const op = "storage.GetProfileByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + `
			  FROM accounts
			  WHERE lower(email) = lower($1)`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateProfile сохраняет новую учётную запись и возвращает её с заполненными
// идентификатором и отметками времени.
func (s *Storage) CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	const op = "storage.CreateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (email, full_name, password_hash, role,
			      subscription_expires_at, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + profileColumns
	created, err := scanProfile(s.DB.QueryRowContext(ctx, query,
		p.Email, p.FullName, p.PasswordHash, string(p.Role), p.SubscriptionExpiresAt, p.IsActive))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateProfile применяет частичное обновление и возвращает профиль после изменений.
func (s *Storage) UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Profile, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sets, args := updateClauses(u)
	if len(sets) == 0 {
		return s.GetProfile(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE accounts
			  SET %s
			  WHERE id = $%d
			  RETURNING %s`, strings.Join(sets, ", "), len(args), profileColumns)
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func updateClauses(u models.ProfileUpdate) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.FullName != nil {
		add("full_name", *u.FullName)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.PasswordHash != nil {
		add("password_hash", *u.PasswordHash)
	}
	if u.Role != nil {
		add("role", string(*u.Role))
	}
	switch {
	case u.ClearSubscriptionExpiry:
		sets = append(sets, "subscription_expires_at = NULL")
	case u.SubscriptionExpiresAt != nil:
		add("subscription_expires_at", u.SubscriptionExpiresAt.UTC())
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	return sets, args
}

// DeleteProfile удаляет учётную запись.
func (s *Storage) DeleteProfile(ctx context.Context, id string) error {
	const op = "storage.DeleteProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	return nil
}

// ListProfiles возвращает учётные записи, отсортированные по дате создания.
func (s *Storage) ListProfiles(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	const op = "storage.ListProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + `
			  FROM accounts
			  ORDER BY created_at, id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
