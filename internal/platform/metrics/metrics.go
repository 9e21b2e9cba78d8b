// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus registry of the API.

Collectors are registered on a private registry rather than the global one, so
tests can build as many instances as they like and assert on each in isolation.

Every recording method is safe on a nil *Metrics, which lets components run
without instrumentation.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockroom"

// Metrics holds every collector exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	RateLimited     prometheus.Counter
	AuthFailures    *prometheus.CounterVec
	AuditEvents     *prometheus.CounterVec
	PasswordHashes  *prometheus.CounterVec
}

// New creates a registry with the runtime collectors and the API collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected authentication attempts by reason.",
		}, []string{"reason"}),
		AuditEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_total",
			Help:      "Audit events emitted by action.",
		}, []string{"action"}),
		PasswordHashes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_hashes_total",
			Help:      "Password hashes computed by algorithm.",
		}, []string{"algorithm"}),
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (metrics *Metrics) Registry() *prometheus.Registry {
	return metrics.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{Registry: metrics.registry})
}

// # Recording

// ObserveRateLimited counts one rejected request.
func (metrics *Metrics) ObserveRateLimited() {
	if metrics == nil {
		return
	}
	metrics.RateLimited.Inc()
}

// ObserveAuthFailure counts one failed authentication by reason (missing, scheme, expired, invalid, subject).
func (metrics *Metrics) ObserveAuthFailure(reason string) {
	if metrics == nil {
		return
	}
	metrics.AuthFailures.WithLabelValues(reason).Inc()
}

// ObserveAuditEvent counts one audit event.
func (metrics *Metrics) ObserveAuditEvent(action string) {
	if metrics == nil {
		return
	}
	metrics.AuditEvents.WithLabelValues(action).Inc()
}

// ObservePasswordHash counts one computed hash.
func (metrics *Metrics) ObservePasswordHash(algorithm string) {
	if metrics == nil {
		return
	}
	metrics.PasswordHashes.WithLabelValues(algorithm).Inc()
}

// # HTTP Instrumentation

type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (writer *statusWriter) WriteHeader(code int) {
	if !writer.wroteHeader {
		writer.code = code
		writer.wroteHeader = true
	}
	writer.ResponseWriter.WriteHeader(code)
}

func (writer *statusWriter) Write(body []byte) (int, error) {
	writer.wroteHeader = true
	return writer.ResponseWriter.Write(body)
}

func (writer *statusWriter) Unwrap() http.ResponseWriter {
	return writer.ResponseWriter
}

// Instrument records request count, latency and in-flight gauge.
//
// The route label is the chi route pattern, so /inventory/items/{id} is one
// series regardless of the id. Unmatched requests are labelled "unmatched".
func (metrics *Metrics) Instrument(next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		metrics.InFlight.Inc()
		defer metrics.InFlight.Dec()

		startTime := time.Now()
		wrapped := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(wrapped, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		metrics.RequestDuration.WithLabelValues(request.Method, route).Observe(time.Since(startTime).Seconds())
		metrics.RequestsTotal.WithLabelValues(request.Method, route, strconv.Itoa(wrapped.code)).Inc()
	})
}
