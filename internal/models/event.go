package models

import "time"

// SessionTerminated событие принудительного завершения сессии точкой контроля доступа.
type SessionTerminated struct {
	AccountID  string    `json:"account_id"`
	SessionID  string    `json:"session_id"`
	Reason     string    `json:"reason"`
	Path       string    `json:"path"`
	OccurredAt time.Time `json:"occurred_at"`
}
