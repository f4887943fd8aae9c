package docker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

type fakeResult struct {
	out   string
	err   error
	block bool
}

type fakeRunner struct {
	results map[string]fakeResult
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	sub := args[0]
	f.calls = append(f.calls, name+" "+sub)
	r, ok := f.results[sub]
	if !ok {
		return nil, errors.New("unexpected command " + sub)
	}
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []byte(r.out), r.err
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

const psOut = "aaaaaaaaaaaa\tweb\tnginx\tUp 2 minutes\trunning\n" +
	"bbbbbbbbbbbb\tdb\tpostgres:16\tUp 2 minutes\trunning\n" +
	"cccccccccccc\tjob\talpine\tExited (0) 1 hour ago\texited\n"

func TestContainersJoinsStats(t *testing.T) {
	runner := &fakeRunner{results: map[string]fakeResult{
		"ps":    {out: psOut},
		"stats": {out: "aaaaaaaaaaaa\t0.50%\t10MiB / 1GiB\t0.98%\t1kB / 2kB\t4\n"},
	}}
	c := NewClientWithRunner("docker", time.Second, runner, quietLogger())

	got, err := c.Containers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 0.5, got[0].CPUPercent)
	assert.Equal(t, uint64(10<<20), got[0].MemUsed)
	assert.Equal(t, uint64(1<<30), got[0].MemLimit)
	assert.Equal(t, uint64(1000), got[0].NetRx)
	assert.Equal(t, uint64(2000), got[0].NetTx)
	assert.Equal(t, 4, got[0].PIDs)

	// running but missing from stats
	assert.Equal(t, model.Container{
		ID: "bbbbbbbbbbbb", Name: "db", Image: "postgres:16", Status: "Up 2 minutes", State: model.StateRunning,
	}, got[1])
	assert.Equal(t, model.StateExited, got[2].State)
	assert.Zero(t, got[2].MemUsed)
}

func TestContainersStatsFailureZeroesUsage(t *testing.T) {
	runner := &fakeRunner{results: map[string]fakeResult{
		"ps":    {out: psOut},
		"stats": {err: errors.New("exit status 1")},
	}}
	c := NewClientWithRunner("docker", time.Second, runner, quietLogger())

	got, err := c.Containers(context.Background())
	require.ErrorIs(t, err, ErrStatsUnavailable)
	require.Len(t, got, 3)
	for _, ct := range got {
		assert.Zero(t, ct.CPUPercent)
		assert.Zero(t, ct.MemUsed)
		assert.Zero(t, ct.PIDs)
		assert.NotEmpty(t, ct.Name)
	}
}

func TestContainersListFailure(t *testing.T) {
	runner := &fakeRunner{results: map[string]fakeResult{
		"ps": {err: errors.New("executable file not found")},
	}}
	c := NewClientWithRunner("docker", time.Second, runner, quietLogger())

	got, err := c.Containers(context.Background())
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
	assert.Nil(t, got)
}

func TestContainersSkipsStatsWithoutRunning(t *testing.T) {
	runner := &fakeRunner{results: map[string]fakeResult{
		"ps": {out: "cccccccccccc\tjob\talpine\tExited (0) 1 hour ago\texited\n"},
	}}
	c := NewClientWithRunner("docker", time.Second, runner, quietLogger())

	got, err := c.Containers(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"docker ps"}, runner.calls)
}

func TestContainersTimeouts(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]fakeResult{"ps": {block: true}}}
		c := NewClientWithRunner("docker", 20*time.Millisecond, runner, quietLogger())

		start := time.Now()
		_, err := c.Containers(context.Background())
		assert.ErrorIs(t, err, ErrRuntimeUnavailable)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("stats", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]fakeResult{
			"ps":    {out: psOut},
			"stats": {block: true},
		}}
		c := NewClientWithRunner("docker", 20*time.Millisecond, runner, quietLogger())

		got, err := c.Containers(context.Background())
		assert.ErrorIs(t, err, ErrStatsUnavailable)
		assert.Len(t, got, 3)
	})
}
