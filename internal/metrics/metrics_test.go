package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveSample("defib", "ecg")
	m.ObserveSample("defib", "ecg")
	m.ObserveSample("defib", "pleth")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SamplesTotal.WithLabelValues("defib", "ecg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SamplesTotal.WithLabelValues("defib", "pleth")))

	m.AddDropped(3)
	m.AddDropped(0)
	m.AddDropped(-1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DroppedTotal))

	m.SetClients("websocket", 4)
	m.SetClients("websocket", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Clients.WithLabelValues("websocket")))

	m.ObserveCommand("shock", "queued")
	m.ObserveCommand("shock", "duplicate")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("shock", "duplicate")))

	m.ObserveCaseReset()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CaseResets))

	m.ObserveTick(time.Millisecond, 12.5)
	assert.Equal(t, 12.5, testutil.ToFloat64(m.SimSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TickDuration))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveCaseReset()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CaseResets))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSample("eeg", "eeg.O1")
	m.ObserveTick(time.Second, 1)
	m.ObserveCaseReset()
	m.AddDropped(1)
	m.SetClients("sse", 1)
	m.ObserveCommand("cpr", "queued")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveSample("ctg", "fhr")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `physiosim_samples_total{modality="ctg",signal="fhr"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
