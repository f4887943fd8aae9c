package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type percentCall struct {
	interval time.Duration
	percpu   bool
}

type fakePercent struct {
	mu    sync.Mutex
	calls []percentCall
	err   error
}

func (f *fakePercent) percent(_ context.Context, interval time.Duration, percpu bool) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, percentCall{interval, percpu})
	if percpu {
		return []float64{10, 120, -3}, f.err
	}
	return []float64{42.5}, f.err
}

func TestCPULoadIsStateless(t *testing.T) {
	fp := &fakePercent{}
	h := &HostProvider{Window: 50 * time.Millisecond, percent: fp.percent}

	first, err := h.CPULoad(context.Background())
	require.NoError(t, err)
	second, err := h.CPULoad(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 42.5, first.Total)
	assert.Equal(t, []float64{10, 100, 0}, first.PerCore)

	require.Len(t, fp.calls, 4)
	for _, c := range fp.calls {
		assert.Equal(t, 50*time.Millisecond, c.interval)
	}
}

func TestCPULoadDefaultsWindow(t *testing.T) {
	fp := &fakePercent{}
	h := &HostProvider{percent: fp.percent}

	_, err := h.CPULoad(context.Background())
	require.NoError(t, err)
	for _, c := range fp.calls {
		assert.Equal(t, DefaultCPUWindow, c.interval)
	}
}

func TestCPULoadError(t *testing.T) {
	fp := &fakePercent{err: errors.New("no /proc/stat")}
	h := &HostProvider{percent: fp.percent}

	_, err := h.CPULoad(context.Background())
	assert.ErrorContains(t, err, "no /proc/stat")
}

func TestHostCPULoadBackToBack(t *testing.T) {
	if testing.Short() {
		t.Skip("reads the real host")
	}
	h := NewHostProvider()
	ctx := context.Background()

	a, err := h.CPULoad(ctx)
	require.NoError(t, err)
	b, err := h.CPULoad(ctx)
	require.NoError(t, err)

	for _, load := range []CPULoad{a, b} {
		assert.GreaterOrEqual(t, load.Total, 0.0)
		assert.LessOrEqual(t, load.Total, 100.0)
	}
	assert.Len(t, b.PerCore, len(a.PerCore))
}
