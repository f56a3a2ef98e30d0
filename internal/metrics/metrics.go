// Package metrics exposes Prometheus counters for the export pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExportsTotal counts completed exports by report type and format.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reportexport_exports_total",
		Help: "Completed report exports.",
	}, []string{"report_type", "format"})

	// DeliveriesTotal counts email delivery attempts by provider and outcome.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reportexport_deliveries_total",
		Help: "Email delivery attempts.",
	}, []string{"provider", "outcome"})

	// RateLimitDenials counts requests denied by the export rate limiter.
	RateLimitDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reportexport_rate_limit_denials_total",
		Help: "Requests denied by the per-principal export cooldown.",
	})
)
