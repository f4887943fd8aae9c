package ui

import "github.com/Dicklesworthstone/resource_monitor/internal/model"

// History is a bounded rolling window of chart samples, oldest first.
type History struct {
	size   int
	cpu    []float64
	memory []float64
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 30
	}
	return &History{size: size}
}

// Push appends one snapshot, evicting the oldest sample past size.
func (h *History) Push(snap model.Snapshot) {
	h.cpu = h.appendBounded(h.cpu, snap.CPU.CurrentLoad)
	h.memory = h.appendBounded(h.memory, snap.Memory.UsedPercent)
}

func (h *History) appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > h.size {
		s = append(s[:0:0], s[len(s)-h.size:]...)
	}
	return s
}

func (h *History) CPU() []float64    { return h.cpu }
func (h *History) Memory() []float64 { return h.memory }
