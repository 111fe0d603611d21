// Package metrics exposes extraction statistics as Prometheus metrics.
//
// A Collector owns its registry so several can coexist in one process. The
// CLI feeds it from extraction reports and writes the result in the text
// exposition format for the node exporter textfile collector.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	arh "github.com/meigma/arh/core"
	arhhttp "github.com/meigma/arh/core/http"
	"github.com/meigma/arh/registry/cache/disk"
)

const (
	namespace = "arh"
	subsystem = "extract"
)

// Collector records archive and extraction metrics.
type Collector struct {
	registry *prometheus.Registry

	members  *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Counter
	entries  prometheus.Gauge
	resolved prometheus.Gauge
	requests prometheus.Counter
	fetched  prometheus.Counter
	hits     prometheus.Counter
	misses   prometheus.Counter
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		members: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "members_total",
			Help:      "Members processed by extraction. Broken down by outcome status.",
		}, []string{"status"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_total",
			Help:      "Bytes written to extracted files.",
		}),
		duration: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds_total",
			Help:      "Time spent in batch extraction.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "header",
			Name:      "members",
			Help:      "Members declared by the most recently observed header.",
		}),
		resolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "header",
			Name:      "resolved_members",
			Help:      "Members of the most recently observed header with a known name.",
		}),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "range_requests_total",
			Help:      "HTTP range requests issued against remote data files.",
		}),
		fetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "bytes_total",
			Help:      "Bytes received from remote data files.",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "block_cache",
			Name:      "hits_total",
			Help:      "Data blocks served from the block cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "block_cache",
			Name:      "misses_total",
			Help:      "Data blocks fetched because they were not cached.",
		}),
	}
	c.registry.MustRegister(c.members, c.bytes, c.duration, c.entries, c.resolved,
		c.requests, c.fetched, c.hits, c.misses)
	for _, s := range []arh.Status{arh.StatusExtracted, arh.StatusNotFound, arh.StatusFailed} {
		c.members.WithLabelValues(statusLabel(s))
	}
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveArchive records the member counts of a.
func (c *Collector) ObserveArchive(a *arh.Archive) {
	c.entries.Set(float64(a.Len()))
	c.resolved.Set(float64(a.Resolved()))
}

// ObserveReport adds the outcomes of one batch started at start.
func (c *Collector) ObserveReport(r *arh.Report, start time.Time) {
	for _, o := range r.Outcomes {
		c.members.WithLabelValues(statusLabel(o.Status)).Inc()
	}
	c.bytes.Add(float64(r.Bytes))
	c.duration.Add(time.Since(start).Seconds())
}

// ObserveOutcome adds a single-member outcome.
func (c *Collector) ObserveOutcome(o arh.Outcome) {
	c.members.WithLabelValues(statusLabel(o.Status)).Inc()
	c.bytes.Add(float64(o.Bytes))
}

// ObserveSource adds the traffic generated by a remote data source.
func (c *Collector) ObserveSource(stats arhhttp.Stats) {
	c.requests.Add(float64(stats.Requests))
	c.fetched.Add(float64(stats.Bytes))
}

// ObserveBlockCache adds block cache lookups.
func (c *Collector) ObserveBlockCache(stats disk.BlockStats) {
	c.hits.Add(float64(stats.Hits))
	c.misses.Add(float64(stats.Misses))
}

// WriteToTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// statusLabel maps a status to a label value ("not found" becomes "not_found").
func statusLabel(s arh.Status) string {
	return strings.ReplaceAll(s.String(), " ", "_")
}
