package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"locres/internal/resource"
)

var _ resource.Observer = (*Metrics)(nil)

// Metrics holds the service's Prometheus collectors. Each instance owns a
// private registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	ResolutionsTotal *prometheus.CounterVec
	FallbacksTotal   *prometheus.CounterVec
	MissingTotal     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	ResolveTime      prometheus.Histogram
	ReloadsTotal     *prometheus.CounterVec
	CatalogLocales   prometheus.Gauge
	CatalogTemplates prometheus.Gauge
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locres_resolutions_total",
				Help: "Total number of resolve requests by outcome",
			},
			[]string{"status"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locres_fallbacks_total",
				Help: "Total number of lookups answered from another locale",
			},
			[]string{"requested", "resolved"},
		),
		MissingTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "locres_missing_total",
				Help: "Total number of lookups for keys with no template",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locres_errors_total",
				Help: "Total number of errors by kind",
			},
			[]string{"kind"},
		),
		ResolveTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "locres_resolve_duration_seconds",
				Help:    "Time spent resolving and formatting templates",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locres_catalog_reloads_total",
				Help: "Total number of catalogue reloads by result",
			},
			[]string{"result"},
		),
		CatalogLocales: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "locres_catalog_locales",
				Help: "Number of locales in the served catalogue",
			},
		),
		CatalogTemplates: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "locres_catalog_templates",
				Help: "Number of templates in the served catalogue",
			},
		),
	}

	metrics.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.ResolutionsTotal,
		metrics.FallbacksTotal,
		metrics.MissingTotal,
		metrics.ErrorsTotal,
		metrics.ResolveTime,
		metrics.ReloadsTotal,
		metrics.CatalogLocales,
		metrics.CatalogTemplates,
	)

	return metrics
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) OnFallback(f resource.FallbackUsed) {
	m.FallbacksTotal.WithLabelValues(requestedLabel(f.Requested), f.Resolved.String()).Inc()
}

func (m *Metrics) OnMissing(_, _ string) {
	m.MissingTotal.Inc()
}

func (m *Metrics) RecordResolution(status string, duration time.Duration) {
	m.ResolutionsTotal.WithLabelValues(status).Inc()
	m.ResolveTime.Observe(duration.Seconds())
}

func (m *Metrics) RecordError(kind string) {
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordReload counts a reload and, when it succeeded, updates the
// catalogue gauges.
func (m *Metrics) RecordReload(table *resource.Table, err error) {
	if err != nil {
		m.ReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ReloadsTotal.WithLabelValues("ok").Inc()
	m.SetCatalog(table)
}

func (m *Metrics) SetCatalog(table *resource.Table) {
	if table == nil {
		return
	}
	m.CatalogLocales.Set(float64(len(table.Locales())))
	m.CatalogTemplates.Set(float64(table.Len()))
}

// requestedLabel canonicalizes client supplied locales to keep the label
// set bounded.
func requestedLabel(locale string) string {
	if locale == "" {
		return "default"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "invalid"
	}
	base, _ := tag.Base()
	return base.String()
}
