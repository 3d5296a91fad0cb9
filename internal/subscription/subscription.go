// Package subscription вычисляет состояние подписки по сроку её окончания.
//
// Evaluate - чистая функция без учёта роли: администраторов вызывающий код
// пропускает сам, сюда их данные не попадают.
package subscription

import "time"

// State производное состояние подписки, нигде не хранится.
type State string

const (
	// Forever - срок не задан, доступ бессрочный.
	Forever State = "forever"
	// Active - срок в будущем.
	Active State = "active"
	// Expired - срок наступил или прошёл.
	Expired State = "expired"
)

// Evaluate возвращает состояние подписки на момент now.
//
// Сравнение строгое: срок, равный now, уже считается истёкшим.
// Время сравнивается как абсолютные моменты в UTC, не как календарные даты.
func Evaluate(expiresAt *time.Time, now time.Time) State {
	if expiresAt == nil {
		return Forever
	}
	if expiresAt.UTC().After(now.UTC()) {
		return Active
	}
	return Expired
}

// Remaining возвращает оставшееся время подписки. Для бессрочной и истёкшей - 0.
func Remaining(expiresAt *time.Time, now time.Time) time.Duration {
	if Evaluate(expiresAt, now) != Active {
		return 0
	}
	return expiresAt.Sub(now)
}
