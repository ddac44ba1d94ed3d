package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recipebox/internal/dispatch"
)

func TestDispatch_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewDispatch(reg)
	require.NoError(t, err)

	m.DispatchStarted(dispatch.KindAdd)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))

	m.DispatchFinished(dispatch.KindAdd, nil, 3*time.Millisecond)
	m.DispatchStarted(dispatch.KindDelete)
	m.DispatchFinished(dispatch.KindDelete, errors.New("boom"), time.Millisecond)
	m.DispatchRejected(dispatch.KindSave)
	m.DispatchRejected(dispatch.KindSave)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("add", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("delete", OutcomeError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.busy.WithLabelValues("save")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.seconds))
}

func TestDispatch_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewDispatch(reg)
	require.NoError(t, err)

	_, err = NewDispatch(reg)
	assert.Error(t, err)
}

func TestDispatch_ExpositionNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewDispatch(reg)
	require.NoError(t, err)
	m.DispatchRejected(dispatch.KindAdd)

	expected := `
# HELP recipebox_dispatch_busy_total Mutations rejected because another was pending.
# TYPE recipebox_dispatch_busy_total counter
recipebox_dispatch_busy_total{action="add"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "recipebox_dispatch_busy_total")
	assert.NoError(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewDispatch(reg)
	require.NoError(t, err)
	m.DispatchFinished(dispatch.KindDuplicate, nil, time.Millisecond)

	path := filepath.Join(t.TempDir(), "recipebox.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `recipebox_dispatch_total{action="duplicate",outcome="ok"} 1`)
	assert.Contains(t, string(data), "recipebox_dispatch_pending 0")
}
