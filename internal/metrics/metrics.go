// Package metrics регистрирует метрики Prometheus точки контроля доступа.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик шлюза.
type Metrics struct {
	Decisions      *prometheus.CounterVec
	ProfileLookups *prometheus.HistogramVec
	IdentityErrors prometheus.Counter
	SignOuts       prometheus.Counter
	LoginAttempts  *prometheus.CounterVec
}

// New регистрирует метрики в reg. Повторная регистрация в том же реестре паникует.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Access decisions by route class and action.",
		}, []string{"class", "action"}),
		ProfileLookups: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gate_profile_lookup_duration_seconds",
			Help:    "Profile store lookup latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		IdentityErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "gate_identity_errors_total",
			Help: "Session resolution failures treated as anonymous.",
		}),
		SignOuts: f.NewCounter(prometheus.CounterOpts{
			Name: "gate_forced_signouts_total",
			Help: "Sessions invalidated by the gate.",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_login_attempts_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
	}
}

// ObserveDecision увеличивает счётчик решений.
func (m *Metrics) ObserveDecision(class, action string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(class, action).Inc()
}

// ObserveProfileLookup фиксирует длительность запроса профиля.
func (m *Metrics) ObserveProfileLookup(result string, started time.Time) {
	if m == nil {
		return
	}
	m.ProfileLookups.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

// ObserveIdentityError учитывает сбой разрешения сессии.
func (m *Metrics) ObserveIdentityError() {
	if m == nil {
		return
	}
	m.IdentityErrors.Inc()
}

// ObserveSignOut учитывает принудительный выход.
func (m *Metrics) ObserveSignOut() {
	if m == nil {
		return
	}
	m.SignOuts.Inc()
}

// ObserveLogin учитывает попытку входа.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}
