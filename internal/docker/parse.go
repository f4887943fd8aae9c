package docker

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// Field layouts requested from the CLI via --format. Tab separated so that
// human status strings ("Up 3 hours (healthy)") survive intact.
const (
	listFormat  = "{{.ID}}\t{{.Names}}\t{{.Image}}\t{{.Status}}\t{{.State}}"
	statsFormat = "{{.ID}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.MemPerc}}\t{{.NetIO}}\t{{.PIDs}}"

	listFields  = 5
	statsFields = 6
	shortIDLen  = 12
)

// maxSize is 2^64; anything at or above it does not fit a uint64.
const maxSize = float64(math.MaxUint64)

var sizePattern = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*([A-Za-z]*)$`)

var unitMultipliers = map[string]float64{
	"":    1,
	"b":   1,
	"kb":  1e3,
	"mb":  1e6,
	"gb":  1e9,
	"tb":  1e12,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
}

// Stats is the live usage of one running container.
type Stats struct {
	CPUPercent float64
	MemUsed    uint64
	MemLimit   uint64
	MemPercent float64
	NetRx      uint64
	NetTx      uint64
	PIDs       int
}

// ParseSize converts "1.5GiB", "500MB" or "12 kB" into bytes, rounded to the
// nearest byte. Units are case-insensitive; "i" units are powers of 1024.
// Placeholders ("--", empty) are 0 without error.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return 0, nil
	}
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("malformed size %q", s)
	}
	mult, ok := unitMultipliers[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown size unit %q in %q", m[2], s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed size %q: %w", s, err)
	}
	b := math.Round(v * mult)
	if b >= maxSize {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return uint64(b), nil
}

// ParsePercent converts "12.34%" into 12.34. Placeholders are 0 without error.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if isPlaceholder(s) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed percent %q", s)
	}
	return v, nil
}

// SplitPair splits a combined "used / limit" field. A field without the
// separator is returned as the first part.
func SplitPair(s string) (string, string) {
	first, second, _ := strings.Cut(s, " / ")
	return strings.TrimSpace(first), strings.TrimSpace(second)
}

// NormalizeState lower-cases a raw runtime state and folds anything
// unrecognised into model.StateOther.
func NormalizeState(raw string) string {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case model.StateRunning, model.StateExited, model.StatePaused, model.StateCreated, model.StateDead:
		return s
	default:
		return model.StateOther
	}
}

// ParseList parses `docker ps` output in listFormat. Short lines are skipped.
func ParseList(out string) []model.Container {
	containers := []model.Container{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < listFields {
			continue
		}
		containers = append(containers, model.Container{
			ID:     shortID(parts[0]),
			Name:   strings.TrimSpace(parts[1]),
			Image:  strings.TrimSpace(parts[2]),
			Status: strings.TrimSpace(parts[3]),
			State:  NormalizeState(parts[4]),
		})
	}
	return containers
}

// ParseStats parses `docker stats --no-stream` output in statsFormat, keyed by
// short container id. Field-level failures leave that field at zero and are
// reported in the joined error; the map is always usable.
func ParseStats(out string) (map[string]Stats, error) {
	stats := make(map[string]Stats)
	var errs []error
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < statsFields {
			errs = append(errs, fmt.Errorf("short stats line %q", line))
			continue
		}
		id := shortID(parts[0])
		collect := func(err error) {
			if err != nil {
				errs = append(errs, fmt.Errorf("container %s: %w", id, err))
			}
		}

		var st Stats
		var err error
		st.CPUPercent, err = ParsePercent(parts[1])
		collect(err)
		used, limit := SplitPair(parts[2])
		st.MemUsed, err = ParseSize(used)
		collect(err)
		st.MemLimit, err = ParseSize(limit)
		collect(err)
		st.MemPercent, err = ParsePercent(parts[3])
		collect(err)
		rx, tx := SplitPair(parts[4])
		st.NetRx, err = ParseSize(rx)
		collect(err)
		st.NetTx, err = ParseSize(tx)
		collect(err)
		if pids := strings.TrimSpace(parts[5]); !isPlaceholder(pids) {
			st.PIDs, err = strconv.Atoi(pids)
			collect(err)
		}
		stats[id] = st
	}
	return stats, errors.Join(errs...)
}

// Join attaches stats to containers by id. Containers without stats keep
// their identity fields and zero usage.
func Join(containers []model.Container, stats map[string]Stats) []model.Container {
	out := make([]model.Container, len(containers))
	for i, c := range containers {
		if st, ok := stats[c.ID]; ok {
			c.CPUPercent = model.Round1(st.CPUPercent)
			c.MemUsed = st.MemUsed
			c.MemLimit = st.MemLimit
			c.MemPercent = model.Round1(st.MemPercent)
			c.NetRx = st.NetRx
			c.NetTx = st.NetTx
			c.PIDs = st.PIDs
		}
		out[i] = c
	}
	return out
}

func isPlaceholder(s string) bool {
	return s == "" || s == "--" || s == "N/A"
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
