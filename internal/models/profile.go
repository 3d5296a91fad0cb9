// Package models содержит доменную модель учётной записи (профиля) пользователя
// стримингового сервиса. Профиль - единственный источник истины о роли,
// сроке подписки и активности аккаунта.
package models

import "time"

// Role роль учётной записи. Назначается только администратором.
type Role string

const (
	// RoleAdmin - администратор, имеет полный доступ независимо от подписки.
	RoleAdmin Role = "admin"
	// RoleUser - обычный пользователь каталога.
	RoleUser Role = "user"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Profile представляет учётную запись пользователя.
//
// SubscriptionExpiresAt == nil означает бессрочный доступ.
// Для администраторов поле не учитывается.
type Profile struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"full_name"`
	Role                  Role       `json:"role"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	IsActive              bool       `json:"is_active"`
	PasswordHash          string     `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsAdmin сообщает, что профиль принадлежит администратору.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ProfileUpdate частичное обновление профиля. nil-поля не изменяются.
//
// ClearSubscriptionExpiry сбрасывает срок подписки в NULL (бессрочный доступ),
// так как nil в SubscriptionExpiresAt означает "не менять".
type ProfileUpdate struct {
	FullName                *string
	Email                   *string
	PasswordHash            *string
	Role                    *Role
	SubscriptionExpiresAt   *time.Time
	ClearSubscriptionExpiry bool
	IsActive                *bool
}

// Empty сообщает, что обновление не содержит изменений.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Email == nil && u.PasswordHash == nil && u.Role == nil &&
		u.SubscriptionExpiresAt == nil && !u.ClearSubscriptionExpiry && u.IsActive == nil
}
