// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KramsTotal counts persisted submissions by outcome: sent, send_failed,
	// unsent or flagged.
	KramsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kram",
			Name:      "submissions_total",
			Help:      "Total kram submissions persisted, by outcome.",
		},
		[]string{"outcome"},
	)

	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kram",
			Name:      "rejected_total",
			Help:      "Total requests rejected before persistence.",
		},
		[]string{"reason"}, // text_length, invalid_phone, duplicate
	)

	SMSTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kram",
			Name:      "sms_total",
			Help:      "Total SMS gateway calls, by status.",
		},
		[]string{"status"},
	)

	SMSDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kram",
			Name:      "sms_request_duration_seconds",
			Help:      "Duration of SMS gateway requests.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	SentimentScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kram",
			Name:      "sentiment_score",
			Help:      "Sentiment scores of submitted texts.",
			Buckets:   []float64{-10, -5, -2, -1, 0, 1, 2, 5, 10},
		},
	)

	ReceiversRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kram",
			Name:      "receivers_registered_total",
			Help:      "Total phone numbers registered.",
		},
	)

	ReceiversTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kram",
			Name:      "receivers_total",
			Help:      "Registered receivers.",
		},
	)

	ReceiversEligible = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kram",
			Name:      "receivers_eligible",
			Help:      "Receivers outside the cooldown window.",
		},
	)
)
