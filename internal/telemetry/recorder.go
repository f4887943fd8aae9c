// Package telemetry exports collection health and the latest snapshot as
// Prometheus metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

const namespace = "resmon"

// Recorder implements sampler.Hooks.
type Recorder struct {
	registry *prometheus.Registry

	duration *prometheus.HistogramVec
	failures prometheus.Counter
	degraded *prometheus.CounterVec

	cpuLoad    prometheus.Gauge
	memPercent prometheus.Gauge
	diskUsed   *prometheus.GaugeVec
	netRate    *prometheus.GaugeVec
	containers *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collect_duration_seconds",
			Help:      "Time taken by one snapshot collection.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collect_failures_total",
			Help:      "Collections that failed because a required source was unavailable.",
		}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_degraded_total",
			Help:      "Best-effort sources that returned partial or empty data.",
		}, []string{"source"}),
		cpuLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_load_percent",
			Help:      "Aggregate CPU load.",
		}),
		memPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_percent",
			Help:      "Used memory.",
		}),
		diskUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_used_percent",
			Help:      "Used space per mount.",
		}, []string{"mount"}),
		netRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_bytes_per_second",
			Help:      "Interface throughput.",
		}, []string{"iface", "direction"}),
		containers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "containers",
			Help:      "Containers by state.",
		}, []string{"state"}),
	}
	r.registry.MustRegister(
		r.duration, r.failures, r.degraded,
		r.cpuLoad, r.memPercent, r.diskUsed, r.netRate, r.containers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Collected records a successful collection and refreshes the host gauges.
// Per-label gauges are reset so vanished mounts and interfaces disappear.
func (r *Recorder) Collected(snap model.Snapshot, took time.Duration) {
	r.duration.WithLabelValues("ok").Observe(took.Seconds())
	r.cpuLoad.Set(snap.CPU.CurrentLoad)
	r.memPercent.Set(snap.Memory.UsedPercent)

	r.diskUsed.Reset()
	for _, d := range snap.Disks {
		r.diskUsed.WithLabelValues(d.Mount).Set(d.UsedPercent)
	}
	r.netRate.Reset()
	for _, n := range snap.Network {
		r.netRate.WithLabelValues(n.Iface, "rx").Set(float64(n.RxBytesPerSec))
		r.netRate.WithLabelValues(n.Iface, "tx").Set(float64(n.TxBytesPerSec))
	}
	r.containers.Reset()
	for _, c := range snap.Containers {
		r.containers.WithLabelValues(c.State).Inc()
	}
}

func (r *Recorder) Failed(_ error, took time.Duration) {
	r.duration.WithLabelValues("error").Observe(took.Seconds())
	r.failures.Inc()
}

func (r *Recorder) Degraded(source string, _ error) {
	r.degraded.WithLabelValues(source).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
