package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	var o Observer = p
	o.SequenceCounted(3)
	o.SequenceCounted(2)
	o.BackpressureWait()
	o.FlushCompleted(Flush{Records: 10, Duration: 20 * time.Millisecond})
	o.FlushCompleted(Flush{Records: 12, Terminal: true})
	o.FlushFailed(errors.New("disk full"))
	o.Footprint(4096)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.SequencesTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(p.IncrementsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.BackpressureWaits))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.FlushesTotal.WithLabelValues("ok", "periodic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.FlushesTotal.WithLabelValues("ok", "terminal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.FlushesTotal.WithLabelValues("error", "any")))
	assert.Equal(t, 12.0, testutil.ToFloat64(p.AccumulationRecords))
	assert.Equal(t, 4096.0, testutil.ToFloat64(p.FootprintBytes))
}

func TestPrometheusDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)
	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestHandlerForServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)
	p.SequenceCounted(1)

	srv := httptest.NewServer(HandlerFor(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "cooc_sequences_total 1"))
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, Noop{}, OrNoop(nil))
	p := &Prometheus{}
	assert.Same(t, p, OrNoop(p))
}
