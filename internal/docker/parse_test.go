package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"1.5GiB", 1610612736, false},
		{"500MiB", 524288000, false},
		{"--", 0, false},
		{"", 0, false},
		{"0B", 0, false},
		{"512B", 512, false},
		{"1kB", 1000, false},
		{"1KiB", 1024, false},
		{"1.5kb", 1500, false},
		{"2MB", 2000000, false},
		{"1GB", 1000000000, false},
		{"1TiB", 1 << 40, false},
		{"3TB", 3000000000000, false},
		{"12 kB", 12000, false},
		{"  7.25MiB ", 7602176, false},
		{"1.5B", 2, false},
		{"42", 42, false},
		{"abc", 0, true},
		{"12XB", 0, true},
		{"-5MB", 0, true},
		{"99999999999999999999TB", 0, true},
		{"18446744073709551616", 0, true},
		{"16EB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func FuzzParseSize(f *testing.F) {
	for _, seed := range []string{"1.5GiB", "500MiB", "--", "", "12 kB", "99999999999999999999TB", "1e3B", ".5kB"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		got, err := ParseSize(in)
		if err != nil {
			assert.Zero(t, got)
			return
		}
		again, err := ParseSize(in)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	})
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.34%", 12.34, false},
		{"0.00%", 0, false},
		{"--", 0, false},
		{"", 0, false},
		{"250%", 250, false},
		{"x%", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePercent(tt.in)
		assert.Equal(t, tt.wantErr, err != nil, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestSplitPair(t *testing.T) {
	used, limit := SplitPair("512.5MiB / 1024MiB")
	assert.Equal(t, "512.5MiB", used)
	assert.Equal(t, "1024MiB", limit)

	used, limit = SplitPair("--")
	assert.Equal(t, "--", used)
	assert.Equal(t, "", limit)
}

func TestNormalizeState(t *testing.T) {
	tests := map[string]string{
		"running":    model.StateRunning,
		"Exited":     model.StateExited,
		"PAUSED":     model.StatePaused,
		"created":    model.StateCreated,
		" dead ":     model.StateDead,
		"restarting": model.StateOther,
		"removing":   model.StateOther,
		"":           model.StateOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeState(in), "state %q", in)
	}
}

func TestParseList(t *testing.T) {
	out := "0123456789abcdef0123\tweb\tnginx:1.25\tUp 3 hours (healthy)\trunning\n" +
		"\n" +
		"fedcba987654\tjob\talpine\tExited (0) 2 days ago\texited\n" +
		"broken line\n"

	got := ParseList(out)
	require.Len(t, got, 2)
	assert.Equal(t, model.Container{
		ID: "0123456789ab", Name: "web", Image: "nginx:1.25",
		Status: "Up 3 hours (healthy)", State: model.StateRunning,
	}, got[0])
	assert.Equal(t, "fedcba987654", got[1].ID)
	assert.Equal(t, model.StateExited, got[1].State)

	assert.NotNil(t, ParseList(""))
	assert.Empty(t, ParseList(""))
}

func TestParseStats(t *testing.T) {
	out := "0123456789ab\t1.25%\t512.5MiB / 1GiB\t50.05%\t1.2kB / 3.4MB\t7\n" +
		"fedcba987654\t--\t-- / --\t--\t-- / --\t--\n"

	stats, err := ParseStats(out)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	st := stats["0123456789ab"]
	assert.Equal(t, 1.25, st.CPUPercent)
	assert.Equal(t, uint64(537395200), st.MemUsed)
	assert.Equal(t, uint64(1073741824), st.MemLimit)
	assert.Equal(t, 50.05, st.MemPercent)
	assert.Equal(t, uint64(1200), st.NetRx)
	assert.Equal(t, uint64(3400000), st.NetTx)
	assert.Equal(t, 7, st.PIDs)

	assert.Equal(t, Stats{}, stats["fedcba987654"])
}

func TestParseStatsFieldFailureKeepsLine(t *testing.T) {
	out := "0123456789ab\t2.00%\tgarbage / 1GiB\t1.00%\t0B / 0B\t3\nshort\tline\n"

	stats, err := ParseStats(out)
	assert.Error(t, err)
	require.Contains(t, stats, "0123456789ab")
	st := stats["0123456789ab"]
	assert.Equal(t, uint64(0), st.MemUsed)
	assert.Equal(t, uint64(1073741824), st.MemLimit)
	assert.Equal(t, 3, st.PIDs)
}

func TestJoin(t *testing.T) {
	containers := []model.Container{
		{ID: "aaa", Name: "web", Image: "nginx", Status: "Up", State: model.StateRunning},
		{ID: "bbb", Name: "old", Image: "alpine", Status: "Exited (1)", State: model.StateExited},
	}
	stats := map[string]Stats{
		"aaa": {CPUPercent: 3.14159, MemUsed: 10, MemLimit: 100, MemPercent: 10.04, NetRx: 5, NetTx: 6, PIDs: 2},
	}

	got := Join(containers, stats)
	require.Len(t, got, 2)
	assert.Equal(t, 3.1, got[0].CPUPercent)
	assert.Equal(t, 10.0, got[0].MemPercent)
	assert.Equal(t, 2, got[0].PIDs)

	assert.Equal(t, model.Container{
		ID: "bbb", Name: "old", Image: "alpine", Status: "Exited (1)", State: model.StateExited,
	}, got[1])

	// input is left untouched
	assert.Zero(t, containers[0].CPUPercent)
}
