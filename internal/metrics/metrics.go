package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Basket metrics
	BasketNormalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_basket_normalizations_total",
			Help: "Total number of basket normalizations",
		},
		[]string{"status"},
	)

	BasketSlackAdjustment = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dust_basket_slack_adjustment",
		Help:    "Absolute rounding slack assigned to the largest basket entry",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	StoredBasketCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dust_stored_basket_count",
		Help: "Number of baskets in the persistent store",
	})

	// Pair session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dust_active_pair_sessions",
		Help: "Number of open trading pair sessions",
	})

	SyncEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_sync_events_total",
			Help: "Total number of amount synchronizer events by kind",
		},
		[]string{"kind"},
	)

	FeedTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dust_feed_ticks_total",
		Help: "Total number of price ratio snapshots emitted by pair feeds",
	})

	FeedGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dust_feed_gaps_total",
		Help: "Total number of price feed failures",
	})

	// Deposit metrics
	DepositAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_deposit_attempts_total",
			Help: "Total number of liquidity deposit attempts by outcome stage",
		},
		[]string{"stage", "status"},
	)

	DepositDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dust_deposit_duration_seconds",
		Help:    "Full approve/approve/deposit sequence duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	ApprovalsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dust_approvals_skipped_total",
		Help: "Total number of approval stages skipped for native assets",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dust_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
