package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"chiaotu/internal/domain"
)

type Collector struct {
	logger        *zap.Logger
	registry      *prometheus.Registry
	linesTotal    *prometheus.CounterVec
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	sourceProxies *prometheus.GaugeVec
	mergeTotal    prometheus.Gauge
	mergeUnique   prometheus.Gauge
	groupMembers  *prometheus.GaugeVec
	workerStarts  *prometheus.CounterVec
	workerStops   *prometheus.CounterVec
	activeWorkers prometheus.Gauge
}

var _ domain.MetricsCollector = (*Collector)(nil)

// NewCollector registers the collectors on a registry of their own so that
// a run exports only its own series.
func NewCollector(logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		logger:   logger.With(zap.String("component", "metrics")),
		registry: registry,
		linesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chiaotu_share_links_total",
				Help: "Share links seen, by protocol and outcome",
			},
			[]string{"protocol", "status"},
		),
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chiaotu_fetches_total",
				Help: "Subscription downloads, by outcome",
			},
			[]string{"source", "status"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chiaotu_fetch_duration_seconds",
				Help:    "Duration of subscription downloads",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		sourceProxies: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chiaotu_source_proxies",
				Help: "Proxies decoded from each cached subscription",
			},
			[]string{"vendor"},
		),
		mergeTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chiaotu_merge_proxies_total",
				Help: "Proxies entering the merge, duplicates included",
			},
		),
		mergeUnique: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chiaotu_merge_proxies_unique",
				Help: "Proxies left after deduplication by name",
			},
		),
		groupMembers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chiaotu_group_members",
				Help: "Members of each emitted proxy group",
			},
			[]string{"group"},
		),
		workerStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chiaotu_worker_starts_total",
				Help: "Total number of worker starts",
			},
			[]string{"worker_id"},
		),
		workerStops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chiaotu_worker_stops_total",
				Help: "Total number of worker stops",
			},
			[]string{"worker_id"},
		),
		activeWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chiaotu_active_workers",
				Help: "Number of currently active workers",
			},
		),
	}
}

func (c *Collector) RecordLineDecoded(protocol domain.ProtocolTag) {
	c.linesTotal.WithLabelValues(string(protocol), "decoded").Inc()
}

func (c *Collector) RecordLineDropped(protocol domain.ProtocolTag) {
	c.linesTotal.WithLabelValues(string(protocol), "dropped").Inc()
}

func (c *Collector) RecordFetch(source, status string, duration time.Duration) {
	c.fetchTotal.WithLabelValues(source, status).Inc()
	c.fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (c *Collector) RecordSource(vendor string, proxies int) {
	c.sourceProxies.WithLabelValues(vendor).Set(float64(proxies))
}

func (c *Collector) RecordMerge(total, unique int) {
	c.mergeTotal.Set(float64(total))
	c.mergeUnique.Set(float64(unique))
}

func (c *Collector) RecordGroup(name string, members int) {
	c.groupMembers.WithLabelValues(name).Set(float64(members))
}

func (c *Collector) RecordWorkerStart(workerID string) {
	c.workerStarts.WithLabelValues(workerID).Inc()
	c.activeWorkers.Inc()
}

func (c *Collector) RecordWorkerStop(workerID string) {
	c.workerStops.WithLabelValues(workerID).Inc()
	c.activeWorkers.Dec()
}

// Registry exposes the collector's registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all series in the text exposition format, for the
// node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	c.logger.Debug("metrics written", zap.String("path", path))
	return nil
}
