package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// Ledger operations
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Finalized ledger transactions by type and status",
		},
		[]string{"type", "status"},
	)
	ConcurrencyRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_concurrency_retries_total",
			Help: "Compare-and-swap attempts retried after a version conflict",
		},
	)

	// Interest accrual
	InterestAccounts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interest_accrual_accounts_total",
			Help: "Accounts visited by the interest accrual job by outcome",
		},
		[]string{"outcome"}, // accrued|skipped|failed
	)
	InterestRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interest_accrual_run_seconds",
			Help:    "Duration of interest accrual runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	// Event relay
	EventsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_events_published_total",
			Help: "TransactionCompleted events published",
		},
	)
	EventsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_events_failed_total",
			Help: "TransactionCompleted events that failed to publish",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestLatency)
		prometheus.MustRegister(TransactionsTotal)
		prometheus.MustRegister(ConcurrencyRetries)
		prometheus.MustRegister(InterestAccounts)
		prometheus.MustRegister(InterestRunDuration)
		prometheus.MustRegister(EventsPublished)
		prometheus.MustRegister(EventsFailed)
	})
}
