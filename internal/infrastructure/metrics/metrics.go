// Package metrics exports reconciliation data-quality counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderdesk"

// Recorder implements report.MetricsRecorder with Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	recordsTotal     *prometheus.CounterVec
	joinMissesTotal  *prometheus.CounterVec
	exportsTotal     *prometheus.CounterVec
	exportedInvoices *prometheus.CounterVec
	lastRunLines     prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
// Go runtime and process collectors are registered alongside.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newRecorder(reg)
}

func newRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_runs_total",
				Help:      "Total reconciliation passes by source",
			},
			[]string{"source"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_duration_seconds",
				Help:      "Reconciliation pass latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_records_total",
				Help:      "Records seen by reconciliation, by kind",
			},
			[]string{"kind"},
		),
		joinMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_join_misses_total",
				Help:      "Items without an order and orders without items",
			},
			[]string{"kind"},
		),
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_exports_total",
				Help:      "Invoice exports by kind",
			},
			[]string{"kind"},
		),
		exportedInvoices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoice_records_exported_total",
				Help:      "Invoice records written to exports",
			},
			[]string{"kind"},
		),
		lastRunLines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reconcile_last_run_lines",
				Help:      "Order lines produced by the most recent pass",
			},
		),
	}
	reg.MustRegister(
		r.runsTotal,
		r.runDuration,
		r.recordsTotal,
		r.joinMissesTotal,
		r.exportsTotal,
		r.exportedInvoices,
		r.lastRunLines,
	)
	return r
}

// ObserveReconcile records the counters of one reconciliation pass.
func (r *Recorder) ObserveReconcile(source order.RunSource, stats order.ReconcileStats, duration time.Duration) {
	src := string(source)
	r.runsTotal.WithLabelValues(src).Inc()
	r.runDuration.WithLabelValues(src).Observe(duration.Seconds())

	r.recordsTotal.WithLabelValues("orders").Add(float64(stats.Orders))
	r.recordsTotal.WithLabelValues("items").Add(float64(stats.Items))
	r.recordsTotal.WithLabelValues("lines").Add(float64(stats.Lines))
	r.recordsTotal.WithLabelValues("excluded_orders").Add(float64(stats.ExcludedOrders))
	r.recordsTotal.WithLabelValues("duplicate_orders").Add(float64(stats.DuplicateOrders))
	r.recordsTotal.WithLabelValues("malformed").Add(float64(stats.MalformedRecords))

	r.joinMissesTotal.WithLabelValues("orphan_items").Add(float64(stats.OrphanItems))
	r.joinMissesTotal.WithLabelValues("itemless_orders").Add(float64(stats.ItemlessOrders))

	r.lastRunLines.Set(float64(stats.Lines))
}

// ObserveExport records one invoice export.
func (r *Recorder) ObserveExport(kind string, invoices int) {
	r.exportsTotal.WithLabelValues(kind).Inc()
	r.exportedInvoices.WithLabelValues(kind).Add(float64(invoices))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GinHandler adapts Handler for gin routes.
func (r *Recorder) GinHandler() gin.HandlerFunc {
	return gin.WrapH(r.Handler())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

var _ report.MetricsRecorder = (*Recorder)(nil)
