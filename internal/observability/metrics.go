package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "voltgrid", Name: "station_searches_total", Help: "Total station search requests served"})

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "voltgrid", Name: "reservations_total", Help: "Reservation attempts by outcome"},
		[]string{"result"},
	)
	ReserveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voltgrid",
		Name:      "reserve_latency_seconds",
		Help:      "Latency of reservation admission including the per-station critical section",
		Buckets:   prometheus.DefBuckets,
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "voltgrid", Name: "ws_clients", Help: "Connected availability stream clients"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "voltgrid", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voltgrid",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Reservation outcome labels.
const (
	ResultAccepted = "accepted"
	ResultConflict = "conflict"
	ResultRejected = "rejected"
)
