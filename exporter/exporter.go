// Package exporter publishes probe results as Prometheus metrics.
package exporter

import (
	"net/http"

	"github.com/digineo/multiping/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter is a monitor.Board which records every status update.
type Exporter struct {
	reg     *prometheus.Registry
	metrics *metrics
}

func NewExporter() (*Exporter, error) {
	reg := prometheus.NewRegistry()

	metrics, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &Exporter{
		reg:     reg,
		metrics: metrics,
	}, nil
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Line implements monitor.Board.
func (e *Exporter) Line(t monitor.Target) monitor.Sink {
	labels := prometheus.Labels{
		"target":  t.Label,
		"address": t.Addr.String(),
	}

	return &line{
		ok:     e.metrics.probes.MustCurryWith(labels).WithLabelValues(monitor.StateOK.String()),
		failed: e.metrics.probes.MustCurryWith(labels).WithLabelValues(monitor.StateError.String()),
		up:     e.metrics.up.With(labels),
		rtt:    e.metrics.rtt.With(labels),
	}
}

// Watch exposes the counters of a monitor. stats is called on every
// scrape.
func (e *Exporter) Watch(stats func() monitor.Counters) error {
	return register(e.reg,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: prefix + "targets_resolved",
			Help: "Number of targets with a running probe loop",
		}, func() float64 { return float64(stats().Resolved) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: prefix + "targets_dropped",
			Help: "Number of targets which could not be resolved",
		}, func() float64 { return float64(stats().Dropped) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: prefix + "replies_ignored_total",
			Help: "Number of replies discarded without status update",
		}, func() float64 { return float64(stats().Ignored) }),
	)
}

type line struct {
	ok     prometheus.Counter
	failed prometheus.Counter
	up     prometheus.Gauge
	rtt    prometheus.Gauge
}

func (l *line) Update(u monitor.StatusUpdate) {
	if u.State != monitor.StateOK {
		l.failed.Inc()
		l.up.Set(0)
		return
	}

	l.ok.Inc()
	l.up.Set(1)
	l.rtt.Set(u.RTT.Seconds())
}
