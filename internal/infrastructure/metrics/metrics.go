package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal entry metrics
	EntriesCreated   prometheus.Counter
	EntriesSubmitted prometheus.Counter
	EntriesApproved  prometheus.Counter
	EntriesRejected  prometheus.Counter
	EntriesPosted    prometheus.Counter
	EntriesReversed  prometheus.Counter
	EntriesCancelled prometheus.Counter
	PostingDuration  prometheus.Histogram
	PostingFanout    prometheus.Histogram
	PostingFailures  *prometheus.CounterVec

	// Account metrics
	AccountsInitialized prometheus.Counter
	AccountPostings     *prometheus.CounterVec
	DuplicatePostings   prometheus.Counter
	AccountBalance      *prometheus.GaugeVec

	// Fiscal period metrics
	PeriodTransitions *prometheus.CounterVec
	PeriodRejections  prometheus.Counter

	// Numbering metrics
	NumbersIssued *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_created_total",
			Help: "Total number of journal entries created",
		}),
		EntriesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_submitted_total",
			Help: "Total number of journal entries submitted for approval",
		}),
		EntriesApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_approved_total",
			Help: "Total number of journal entries approved",
		}),
		EntriesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_rejected_total",
			Help: "Total number of journal entries rejected back to draft",
		}),
		EntriesPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntriesReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_reversed_total",
			Help: "Total number of journal entries reversed",
		}),
		EntriesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_entries_cancelled_total",
			Help: "Total number of journal entries cancelled",
		}),
		PostingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "erpledger_posting_duration_seconds",
			Help:    "Duration of journal entry post operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostingFanout: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "erpledger_posting_fanout_calls",
			Help:    "Number of account posting calls per journal entry post",
			Buckets: []float64{2, 4, 8, 16, 32, 64, 128},
		}),
		PostingFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_posting_failures_total",
				Help: "Total number of failed account postings by reason",
			},
			[]string{"reason"},
		),

		AccountsInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_accounts_initialized_total",
			Help: "Total number of accounts initialized",
		}),
		AccountPostings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_account_postings_total",
				Help: "Total accepted account postings by direction",
			},
			[]string{"direction"},
		),
		DuplicatePostings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_duplicate_postings_total",
			Help: "Total re-delivered transaction ids deduplicated by accounts",
		}),
		AccountBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "erpledger_account_balance",
				Help: "Current account balance",
			},
			[]string{"tenant_id", "account_code", "currency"},
		),

		PeriodTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_period_transitions_total",
				Help: "Total fiscal period status transitions",
			},
			[]string{"transition"},
		),
		PeriodRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_period_rejections_total",
			Help: "Total postings rejected by the fiscal period gate",
		}),

		NumbersIssued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_numbers_issued_total",
				Help: "Total document numbers issued by kind",
			},
			[]string{"kind"},
		),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_outbox_errors_total",
			Help: "Total outbox publish errors",
		}),
	}
}
