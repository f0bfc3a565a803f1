// Package metrics provides Prometheus metrics for the session layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rainwise_client"

// Refresh trigger labels.
const (
	TriggerClock     = "clock"
	TriggerCheck     = "check"
	TriggerRestore   = "restore"
	TriggerTransport = "transport"
	TriggerManual    = "manual"
)

// Session holds the session counters. A nil *Session is valid and records
// nothing.
type Session struct {
	// LoginsTotal counts login attempts by status.
	LoginsTotal *prometheus.CounterVec
	// RefreshesTotal counts refresh network calls by trigger and status.
	RefreshesTotal *prometheus.CounterVec
	// RefreshWaitsTotal counts requests that waited on another request's refresh.
	RefreshWaitsTotal prometheus.Counter
	// LogoutsTotal counts logouts by reason.
	LogoutsTotal *prometheus.CounterVec
}

// New registers the session metrics with reg.
func New(reg prometheus.Registerer) *Session {
	f := promauto.With(reg)
	return &Session{
		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts",
		}, []string{"status"}),
		RefreshesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Total number of token refresh calls",
		}, []string{"trigger", "status"}),
		RefreshWaitsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_waits_total",
			Help:      "Requests that reused a refresh started by another request",
		}),
		LogoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Total number of logouts",
		}, []string{"reason"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordLogin records a login attempt.
func (m *Session) RecordLogin(err error) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(status(err)).Inc()
}

// RecordRefresh records a refresh network call.
func (m *Session) RecordRefresh(trigger string, err error) {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(trigger, status(err)).Inc()
}

// RecordRefreshWait records a request that joined an in-flight refresh.
func (m *Session) RecordRefreshWait() {
	if m == nil {
		return
	}
	m.RefreshWaitsTotal.Inc()
}

// RecordLogout records a logout; reason is "user" or "expired".
func (m *Session) RecordLogout(reason string) {
	if m == nil {
		return
	}
	m.LogoutsTotal.WithLabelValues(reason).Inc()
}
