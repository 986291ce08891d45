// File: metrics/metrics.go
// Package metrics
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collectors for the connection multiplexer and the command executor.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hioload_ftpd"

// Teardown reasons used as the "reason" label of SessionsClosed.
const (
	ReasonClientClose = "client_close"
	ReasonIOError     = "io_error"
	ReasonHangup      = "hangup"
	ReasonGreeting    = "greeting_failed"
	ReasonShutdown    = "shutdown"
)

// ServerMetrics exposes multiplexer and executor counters.
// All methods are nil-safe: calls on a nil *ServerMetrics are no-ops.
type ServerMetrics struct {
	// Accepted counts connections that were given a session slot.
	Accepted prometheus.Counter

	// Rejected counts connections closed because the table was full.
	Rejected prometheus.Counter

	// SessionsClosed counts session teardowns by reason.
	SessionsClosed *prometheus.CounterVec

	// Active tracks the number of occupied session slots.
	Active prometheus.Gauge

	// WaitInterrupts counts readiness waits interrupted by a signal.
	WaitInterrupts prometheus.Counter

	// GreetingFailures counts sessions dropped because the greeting write failed.
	GreetingFailures prometheus.Counter

	// Commands counts protocol commands by verb.
	Commands *prometheus.CounterVec
}

// NewServerMetrics creates and registers the collectors with reg.
// If reg is nil, metrics are created but not registered (useful for testing).
//
// Collectors already present in reg are reused, so a restarted server keeps
// exporting through the same series.
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Total number of control connections given a session slot",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "rejected_total",
			Help:      "Total number of control connections rejected at capacity",
		}),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "closed_total",
			Help:      "Total number of session teardowns by reason",
		}, []string{"reason"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Current number of active sessions",
		}),
		WaitInterrupts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "wait_interrupts_total",
			Help:      "Total number of readiness waits interrupted by a signal",
		}),
		GreetingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "greeting_failures_total",
			Help:      "Total number of sessions dropped because the greeting could not be sent",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "total",
			Help:      "Total number of protocol commands processed by verb",
		}, []string{"command"}),
	}

	if reg != nil {
		m.Accepted = registerOrReuse(reg, m.Accepted).(prometheus.Counter)
		m.Rejected = registerOrReuse(reg, m.Rejected).(prometheus.Counter)
		m.SessionsClosed = registerOrReuse(reg, m.SessionsClosed).(*prometheus.CounterVec)
		m.Active = registerOrReuse(reg, m.Active).(prometheus.Gauge)
		m.WaitInterrupts = registerOrReuse(reg, m.WaitInterrupts).(prometheus.Counter)
		m.GreetingFailures = registerOrReuse(reg, m.GreetingFailures).(prometheus.Counter)
		m.Commands = registerOrReuse(reg, m.Commands).(*prometheus.CounterVec)
	}

	return m
}

// RecordAccepted counts an accepted connection.
func (m *ServerMetrics) RecordAccepted() {
	if m == nil {
		return
	}
	m.Accepted.Inc()
}

// RecordRejected counts a connection rejected at capacity.
func (m *ServerMetrics) RecordRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

// RecordClosed counts a session teardown.
func (m *ServerMetrics) RecordClosed(reason string) {
	if m == nil {
		return
	}
	m.SessionsClosed.WithLabelValues(reason).Inc()
}

// SetActive publishes the current number of sessions.
func (m *ServerMetrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.Active.Set(float64(n))
}

// RecordWaitInterrupt counts an EINTR from the readiness wait.
func (m *ServerMetrics) RecordWaitInterrupt() {
	if m == nil {
		return
	}
	m.WaitInterrupts.Inc()
}

// RecordGreetingFailure counts a failed greeting write.
func (m *ServerMetrics) RecordGreetingFailure() {
	if m == nil {
		return
	}
	m.GreetingFailures.Inc()
}

// RecordCommand counts one processed command.
func (m *ServerMetrics) RecordCommand(verb string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(verb).Inc()
}
