package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts tracks credential verification outcomes by credential kind and result code
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsdns_auth_attempts_total",
		Help: "Total number of bearer credential verifications",
	}, []string{"credential", "result"})

	// LoginAttempts tracks password logins by result
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsdns_login_attempts_total",
		Help: "Total number of password login attempts",
	}, []string{"result"})

	// RequestDuration tracks API request processing time
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostsdns_request_duration_seconds",
		Help:    "Histogram of API request processing duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// ZoneMutations tracks zone and record writes
	ZoneMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsdns_zone_mutations_total",
		Help: "Total number of zone and record mutations",
	}, []string{"action"})

	// RejectedMutations tracks writes refused by ownership or validation checks
	RejectedMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsdns_rejected_mutations_total",
		Help: "Total number of zone and record writes rejected before persistence",
	}, []string{"reason"})

	// RateLimited tracks requests refused by the rate limiter
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostsdns_rate_limited_total",
		Help: "Total number of requests refused by the rate limiter",
	}, []string{"route"})

	// DBConnectionsActive tracks open database connections
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hostsdns_db_connections_active",
		Help: "Number of active database connections",
	})
)
