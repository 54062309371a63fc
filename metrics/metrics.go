package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreMutations counts loan store operations by outcome.
	StoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_store_mutations_total",
			Help: "Loan store mutations by operation and status.",
		},
		[]string{"op", "status"},
	)

	LoansTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loans_tracked",
			Help: "Number of loans currently held by the store.",
		},
	)

	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_payments_total",
			Help: "Installments applied, by status.",
		},
		[]string{"status"},
	)

	// AICalls counts calls to the completion API.
	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Calls to the text completion API.",
		},
		[]string{"operation", "status"},
	)

	AICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_call_duration_seconds",
			Help:    "Latency of text completion calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat requests by outcome (answered, calculated, failed, rejected).",
		},
		[]string{"outcome"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the per-client rate limiter.",
		},
		[]string{"route"},
	)

	LoansDueSoon = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loans_due_soon",
			Help: "Loans whose next payment falls inside the reminder window.",
		},
	)
)
