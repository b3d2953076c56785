// Package monitoring exposes pipeline run statistics as Prometheus
// metrics and logs feature-distribution checks so silent data drift does
// not go unnoticed.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated after each pipeline run.
type Metrics struct {
	MembersTotal           prometheus.Gauge
	MembersWithTouchpoints prometheus.Gauge
	PredictedMembers       *prometheus.GaugeVec
	ZeroVarianceColumns    prometheus.Gauge
	RunDuration            prometheus.Histogram
	RunsTotal              *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "affinity",
			Name:      "members_total",
			Help:      "Members eligible for scoring in the last run (roster minus employees).",
		}),
		MembersWithTouchpoints: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "affinity",
			Name:      "members_with_touchpoints",
			Help:      "Members retained by the touchpoint filter in the last run.",
		}),
		PredictedMembers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "affinity",
			Name:      "predicted_members",
			Help:      "Members assigned to each vertical in the last run.",
		}, []string{"vertical"}),
		ZeroVarianceColumns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "affinity",
			Name:      "zero_variance_columns",
			Help:      "Feature columns with zero variance in the last run.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "affinity",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "affinity",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
	}
}
