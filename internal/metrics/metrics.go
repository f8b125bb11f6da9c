// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package metrics exposes gateway counters in the Prometheus format.
package metrics

import (
	"time"

	gwerrors "tablewire/gateway/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tablewire"

// Metrics holds the gateway collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsActive  prometheus.Gauge
	SessionsTotal   prometheus.Counter
	Requests        *prometheus.CounterVec
	RequestErrors   *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Client connections currently open.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Client connections accepted.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests decoded, by action.",
		}, []string{"action"}),
		RequestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Error responses and session failures, by kind.",
		}, []string{"kind"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_duration_seconds",
			Help:      "Backend operation latency, by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.SessionsActive, m.SessionsTotal, m.Requests, m.RequestErrors, m.BackendDuration)
	return m
}

// SessionOpened counts an accepted connection.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// SessionClosed counts a finished connection.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// Request counts one decoded request.
func (m *Metrics) Request(action string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(action).Inc()
}

// Failure counts err under its kind.
func (m *Metrics) Failure(err error) {
	if m == nil || err == nil {
		return
	}
	m.RequestErrors.WithLabelValues(string(gwerrors.KindOf(err))).Inc()
}

// ObserveBackend records one backend operation.
func (m *Metrics) ObserveBackend(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(gwerrors.KindOf(err))
	}
	m.BackendDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}
