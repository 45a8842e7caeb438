package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NoticeRenders counts render decisions by result (shown|dismissed|hidden).
	NoticeRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noticeboard_notice_renders_total",
			Help: "Total number of notice render decisions",
		},
		[]string{"result"},
	)

	// NoticeDismissals counts dismiss requests by scope and outcome
	// (dismissed|ignored|invalid_token|missing_id|store_error).
	NoticeDismissals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noticeboard_notice_dismissals_total",
			Help: "Total number of notice dismiss requests",
		},
		[]string{"scope", "outcome"},
	)

	// FlagStoreErrors counts failed flag store reads and writes.
	FlagStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noticeboard_flag_store_errors_total",
			Help: "Total number of dismissed-flag store failures",
		},
		[]string{"scope", "op"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "noticeboard_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
