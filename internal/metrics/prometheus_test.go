package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.RecordRequest("POST", 419)
	p.RecordRequest("POST", 200)
	p.RecordAcquisition(true)
	p.RecordAcquisition(false)
	p.RecordAcquisition(true)
	p.RecordReplay("replayed")
	p.RecordRedirect()
	p.RecordSilent("duplicate")
	p.RecordSilent("duplicate")

	assert.Equal(t, 1.0, testutil.ToFloat64(p.requestsTotal.WithLabelValues("POST", "419")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.acquisitionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.acquisitionsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.replaysTotal.WithLabelValues("replayed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.redirectsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.silentTotal.WithLabelValues("duplicate")))
}

func TestPrometheusDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestNoopSatisfiesRecorder(t *testing.T) {
	var r Recorder = NewNoop()
	r.RecordRequest("GET", 200)
	r.RecordRedirect()
}
