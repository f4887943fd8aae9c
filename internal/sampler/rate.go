package sampler

import (
	"math"
	"sync"
	"time"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// RateTracker turns cumulative interface counters into per-second rates.
// It keeps the previous reading of every interface and replaces the whole set
// on each Observe, so interfaces that disappear are forgotten.
type RateTracker struct {
	mu   sync.Mutex
	prev map[string]NetCounter // nil until the first Observe
	at   time.Time
}

func NewRateTracker() *RateTracker { return &RateTracker{} }

// Observe derives rates against the previous reading and stores counters as
// the new baseline. Rates are 0 for interfaces without a baseline, for
// counters that went backwards, and for the whole call when now is not after
// the previous reading.
func (t *RateTracker) Observe(counters []NetCounter, now time.Time) []model.NetworkInterface {
	next := make(map[string]NetCounter, len(counters))
	out := make([]model.NetworkInterface, 0, len(counters))

	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := now.Sub(t.at).Seconds()
	for _, c := range counters {
		ni := model.NetworkInterface{Iface: c.Iface, RxTotal: c.RxBytes, TxTotal: c.TxBytes}
		if prev, ok := t.prev[c.Iface]; ok && elapsed > 0 {
			ni.RxBytesPerSec = perSecond(c.RxBytes, prev.RxBytes, elapsed)
			ni.TxBytesPerSec = perSecond(c.TxBytes, prev.TxBytes, elapsed)
		}
		next[c.Iface] = c
		out = append(out, ni)
	}
	t.prev = next
	t.at = now
	return out
}

// perSecond clamps resets and wraparounds to 0.
func perSecond(cur, prev uint64, elapsed float64) uint64 {
	if cur < prev {
		return 0
	}
	return uint64(math.Round(float64(cur-prev) / elapsed))
}
