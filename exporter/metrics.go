package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	probes *prometheus.CounterVec
	up     *prometheus.GaugeVec
	rtt    *prometheus.GaugeVec
}

const (
	prefix = "multiping_"
)

var targetLabels = []string{"target", "address"}

func newMetrics(reg *prometheus.Registry) (*metrics, error) {
	m := &metrics{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "probes_total",
			Help: "Number of completed probes per target and state",
		}, append(targetLabels, "state")),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prefix + "target_up",
			Help: "Outcome of the last probe of a target (1: ok, 0: error)",
		}, targetLabels),
		rtt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prefix + "rtt_seconds",
			Help: "Round trip time of the last successful probe of a target",
		}, targetLabels),
	}

	err := register(reg,
		m.probes,
		m.up,
		m.rtt,
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register(r *prometheus.Registry, cs ...prometheus.Collector) error {
	for i, c := range cs {
		if err := r.Register(c); err != nil {
			for _, c := range cs[:i] {
				r.Unregister(c)
			}

			return err
		}
	}

	return nil
}
