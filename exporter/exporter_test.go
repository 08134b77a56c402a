package exporter

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/digineo/multiping/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var target = monitor.Target{Label: "router", Addr: netip.MustParseAddr("192.0.2.1")}

func TestExporterLine(t *testing.T) {
	e := newTestExporter(t)
	sink := e.Line(target)

	sink.Update(monitor.StatusUpdate{Target: target, State: monitor.StateOK, RTT: 1500 * time.Microsecond})
	sink.Update(monitor.StatusUpdate{Target: target, State: monitor.StateOK, RTT: 2 * time.Millisecond})

	requireMetric(t, 2, e.metrics.probes.WithLabelValues("router", "192.0.2.1", "ok"))
	requireMetric(t, 0, e.metrics.probes.WithLabelValues("router", "192.0.2.1", "error"))
	requireMetric(t, 1, e.metrics.up.WithLabelValues("router", "192.0.2.1"))
	requireMetric(t, 0.002, e.metrics.rtt.WithLabelValues("router", "192.0.2.1"))

	sink.Update(monitor.StatusUpdate{Target: target, State: monitor.StateError, Message: "i/o timeout"})

	requireMetric(t, 1, e.metrics.probes.WithLabelValues("router", "192.0.2.1", "error"))
	requireMetric(t, 0, e.metrics.up.WithLabelValues("router", "192.0.2.1"))
	requireMetric(t, 0.002, e.metrics.rtt.WithLabelValues("router", "192.0.2.1"))
}

func TestExporterWatch(t *testing.T) {
	e := newTestExporter(t)

	counters := monitor.Counters{Resolved: 3, Dropped: 1, Ignored: 7}
	require.NoError(t, e.Watch(func() monitor.Counters { return counters }))

	expected := `
# HELP multiping_targets_dropped Number of targets which could not be resolved
# TYPE multiping_targets_dropped gauge
multiping_targets_dropped 1
# HELP multiping_replies_ignored_total Number of replies discarded without status update
# TYPE multiping_replies_ignored_total counter
multiping_replies_ignored_total 7
`
	err := testutil.GatherAndCompare(e.reg, strings.NewReader(expected),
		"multiping_targets_dropped", "multiping_replies_ignored_total")
	assert.NoError(t, err)

	assert.Error(t, e.Watch(func() monitor.Counters { return counters }), "registered twice")
}

func TestServer(t *testing.T) {
	e := newTestExporter(t)
	e.Line(target).Update(monitor.StatusUpdate{Target: target, State: monitor.StateOK})

	srv := httptest.NewServer(NewServer("", e.Handler()).srv.Handler)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()

	e, err := NewExporter()
	require.NoError(t, err)

	return e
}

func requireMetric(t *testing.T, expected float64, metric prometheus.Collector) {
	t.Helper()

	require.InDelta(t, expected, testutil.ToFloat64(metric), 0.0001)
}
