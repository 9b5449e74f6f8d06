// Package metrics define los collectors Prometheus del servicio. Las capas
// (HTTP, dispatcher, messaging) reciben *Metrics; un *Metrics nil es no-op.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	messagesSent *prometheus.CounterVec
	rateRejects  *prometheus.CounterVec
}

// New crea un registry propio (no el global) con collectors de proceso y Go.
func New() (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatcher_requests_total",
			Help: "Requests despachados por tipo y resultado",
		}, []string{"request", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatcher_request_duration_seconds",
			Help:    "Duración de los handlers del dispatcher",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"request"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Emails/SMS enviados por canal y resultado",
		}, []string{"channel", "outcome"}),
		rateRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_rejects_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"route"}),
	}
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.dispatchTotal, m.dispatchDuration,
		m.messagesSent, m.rateRejects,
	} {
		if err := registerCollector(m.reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerCollector ignora duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Register agrega un collector externo (p.ej. stats del pool de DB).
func (m *Metrics) Register(c prometheus.Collector) error {
	if m == nil {
		return nil
	}
	return registerCollector(m.reg, c)
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.reg
}

func (m *Metrics) InflightInc() {
	if m != nil {
		m.httpInflight.Inc()
	}
}

func (m *Metrics) InflightDec() {
	if m != nil {
		m.httpInflight.Dec()
	}
}

// ObserveHTTP usa la ruta (patrón chi) como label, nunca el path crudo.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveDispatch registra un request del dispatcher. outcome es el Kind
// del resultado ("none" = éxito).
func (m *Metrics) ObserveDispatch(request, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(request, outcome).Inc()
	m.dispatchDuration.WithLabelValues(request).Observe(d.Seconds())
}

// ObserveMessage: channel email|sms, outcome sent|failed.
func (m *Metrics) ObserveMessage(channel, outcome string) {
	if m != nil {
		m.messagesSent.WithLabelValues(channel, outcome).Inc()
	}
}

func (m *Metrics) ObserveRateReject(route string) {
	if m != nil {
		m.rateRejects.WithLabelValues(route).Inc()
	}
}
