package observer

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsObserver exports grid events as Prometheus metrics on its own
// registry.
type MetricsObserver struct {
	registry *prometheus.Registry

	lookups       *prometheus.CounterVec
	lookupSeconds prometheus.Histogram
	images        *prometheus.CounterVec
	grids         prometheus.Counter
	gridRows      prometheus.Histogram
	publishes     *prometheus.CounterVec
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsObserver{
		registry: reg,
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restaurant_grid_lookups_total",
				Help: "Business lookups by outcome",
			},
			[]string{"outcome"},
		),
		lookupSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "restaurant_grid_lookup_duration_seconds",
				Help:    "Duration of a search plus details lookup",
				Buckets: prometheus.DefBuckets,
			},
		),
		images: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restaurant_grid_images_total",
				Help: "Cell images by load outcome",
			},
			[]string{"outcome"},
		),
		grids: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "restaurant_grid_renders_total",
				Help: "Composite images rendered",
			},
		),
		gridRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "restaurant_grid_rows",
				Help:    "Rows per rendered grid",
				Buckets: []float64{1, 2, 5, 10, 20, 50},
			},
		),
		publishes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restaurant_grid_publishes_total",
				Help: "Grid uploads by sink and outcome",
			},
			[]string{"sink", "outcome"},
		),
	}
}

// OnEvent handles grid events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event GridEvent) {
	switch event.EventType {
	case LookupMatched:
		o.lookups.WithLabelValues("matched").Inc()
		o.lookupSeconds.Observe(event.Duration.Seconds())
	case LookupNoMatch:
		o.lookups.WithLabelValues("no_match").Inc()
		o.lookupSeconds.Observe(event.Duration.Seconds())
	case LookupFailed:
		o.lookups.WithLabelValues("failed").Inc()
	case ImageFetched:
		o.images.WithLabelValues("loaded").Inc()
	case ImageFetchFailed:
		o.images.WithLabelValues("placeholder").Inc()
	case GridRendered:
		o.grids.Inc()
		if rows, ok := event.Metadata["rows"].(int); ok {
			o.gridRows.Observe(float64(rows))
		}
	case GridPublished:
		sink, _ := event.Metadata["sink"].(string)
		outcome := "ok"
		if !event.Success {
			outcome = "failed"
		}
		o.publishes.WithLabelValues(sink, outcome).Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Handler serves the observer's registry in the Prometheus text format.
func (o *MetricsObserver) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
