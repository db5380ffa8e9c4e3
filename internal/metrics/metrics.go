package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry metrics
	TierSetCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tierengine_tier_set_count",
		Help: "Number of tier sets held in the registry",
	})

	TierSetUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tierengine_tier_set_updates_total",
		Help: "Total number of tier set registrations and swap commits",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tierengine_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tierengine_quote_duration_seconds",
		Help:    "Quote request duration in seconds",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	// Swap metrics
	SwapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tierengine_swap_requests_total",
			Help: "Total number of executed swap requests",
		},
		[]string{"status"},
	)

	SwapDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tierengine_swap_duration_seconds",
		Help:    "Swap request duration in seconds",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05},
	})

	// Solver metrics
	SolverIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tierengine_solver_iterations",
		Help:    "Bisection iterations per solve",
		Buckets: []float64{4, 8, 16, 32, 48, 64, 96, 128},
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tierengine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tierengine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
