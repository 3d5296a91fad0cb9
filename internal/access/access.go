// Package access реализует движок решений о доступе.
//
// Decide - чистая функция: по классу маршрута, наличию личности, профилю и
// состоянию подписки она возвращает вердикт. Побочные эффекты (выход из сессии,
// редиректы) выполняет вызывающая сторона.
package access

import (
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/routes"
	"github.com/magabrotheeeer/streaming-gate/internal/subscription"
)

// Action итог решения.
type Action string

const (
	Allow                       Action = "allow"
	RedirectLogin               Action = "redirect-to-login"
	RedirectLoginDisabled       Action = "redirect-to-login-disabled"
	RedirectHome                Action = "redirect-to-home"
	RedirectAdminHome           Action = "redirect-to-admin-home"
	RedirectSubscriptionExpired Action = "redirect-to-subscription-expired"
)

// Verdict решение по одному запросу.
type Verdict struct {
	Action Action
	// ForceSignOut требует аннулировать учётные данные до выполнения редиректа.
	ForceSignOut bool
	// Reason короткая причина для логов и метрик.
	Reason string
}

// Input входные данные для Decide.
type Input struct {
	Class        routes.Class
	LoginRoute   bool
	HasIdentity  bool
	Profile      *models.Profile
	Subscription subscription.State
}

// NeedsProfile сообщает, нужен ли профиль для решения. Позволяет не ходить
// в хранилище профилей для публичных маршрутов и анонимных запросов.
func NeedsProfile(class routes.Class, loginRoute, hasIdentity bool) bool {
	if !hasIdentity {
		return false
	}
	return loginRoute || class != routes.Public
}

// Decide вычисляет вердикт. Правила проверяются по порядку, срабатывает первое.
func Decide(in Input) Verdict {
	if in.Class == routes.Public && !in.LoginRoute {
		return Verdict{Action: Allow, Reason: "public route"}
	}

	if !in.HasIdentity {
		if in.LoginRoute {
			return Verdict{Action: Allow, Reason: "anonymous on login"}
		}
		return Verdict{Action: RedirectLogin, Reason: "no identity"}
	}

	if in.LoginRoute {
		return decideLogin(in.Profile)
	}

	p := in.Profile
	if p == nil {
		return Verdict{Action: RedirectLogin, Reason: "profile missing"}
	}

	if !p.IsActive {
		return Verdict{Action: RedirectLoginDisabled, ForceSignOut: true, Reason: "account disabled"}
	}

	if in.Class == routes.AdminOnly {
		if !p.IsAdmin() {
			return Verdict{Action: RedirectHome, Reason: "admin route for non-admin"}
		}
		return Verdict{Action: Allow, Reason: "admin"}
	}

	if in.Class == routes.Protected && !p.IsAdmin() && in.Subscription == subscription.Expired {
		return Verdict{Action: RedirectSubscriptionExpired, Reason: "subscription expired"}
	}

	return Verdict{Action: Allow, Reason: "granted"}
}

// decideLogin не даёт вошедшему пользователю снова увидеть форму входа.
func decideLogin(p *models.Profile) Verdict {
	switch {
	case p == nil:
		// Учётные данные есть, а профиля нет: показываем форму, чтобы войти заново.
		return Verdict{Action: Allow, Reason: "login with unknown profile"}
	case !p.IsActive:
		return Verdict{Action: RedirectLoginDisabled, ForceSignOut: true, Reason: "account disabled"}
	case p.IsAdmin():
		return Verdict{Action: RedirectAdminHome, Reason: "already signed in"}
	default:
		return Verdict{Action: RedirectHome, Reason: "already signed in"}
	}
}
