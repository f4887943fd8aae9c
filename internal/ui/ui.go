package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// Streamer is the sampler side of the dashboard.
type Streamer interface {
	Stream(ctx context.Context) <-chan model.Snapshot
}

// Model renders live snapshots from the sampler.
type Model struct {
	latest    model.Snapshot
	history   *History
	stream    <-chan model.Snapshot
	ctxCancel context.CancelFunc
	waiting   bool
	width     int
	height    int
}

func New(s Streamer, historySize int) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		latest:    model.Zero(),
		history:   NewHistory(historySize),
		stream:    s.Stream(ctx),
		ctxCancel: cancel,
		waiting:   true,
		width:     120,
		height:    40,
	}
}

type sampleMsg model.Snapshot

// waitForSample delivers the next snapshot as a sampleMsg. A closed stream
// yields no message, which ends the chain.
func waitForSample(ch <-chan model.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return sampleMsg(snap)
	}
}

func (m *Model) Init() tea.Cmd { return waitForSample(m.stream) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctxCancel()
			return m, tea.Quit
		}
	case sampleMsg:
		m.apply(model.Snapshot(msg))
		return m, waitForSample(m.stream)
	}
	return m, nil
}

func (m *Model) apply(snap model.Snapshot) {
	m.latest = snap
	m.waiting = false
	m.history.Push(snap)
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	levelStyles = map[model.StatusLevel]lipgloss.Style{
		model.LevelNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		model.LevelHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		model.LevelCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	gaugeFill  = "█"
	gaugeEmpty = "░"
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	if m.waiting {
		return titleStyle.Render("Resource Monitor") + "  " + subtleStyle.Render("collecting…")
	}
	up := s.Uptime
	header := titleStyle.Render("Resource Monitor") + "  " +
		subtleStyle.Render(fmt.Sprintf("%s · %s %s · up %s · %s",
			up.Hostname, up.Distro, up.Release, up.FormattedUptime,
			s.Time().Format("Mon Jan 2 15:04:05 MST 2006")))

	cpuCard := card("CPU",
		fmt.Sprintf("%s\n%s %.2fGHz %d/%d cores\n%s",
			gaugeBar(s.CPU.CurrentLoad, 28),
			truncate(s.CPU.Brand, 24), s.CPU.Speed, s.CPU.PhysicalCores, s.CPU.Cores,
			sparkline(m.history.CPU(), 36)))

	memCard := card("Memory",
		fmt.Sprintf("%s\n%s / %s\n%s",
			gaugeBar(s.Memory.UsedPercent, 28),
			model.FormatBytes(s.Memory.Used, 1),
			model.FormatBytes(s.Memory.Total, 1),
			sparkline(m.history.Memory(), 36)))

	netCard := card("Network", renderNetwork(s.Network, 4))
	diskCard := card("Disks", renderDisks(s.Disks, 6))
	procTable := card("Top CPU", renderProcesses(s.Processes, 10))

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard, memCard, netCard)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, diskCard, procTable)
	rows := []string{header, line1, line2}
	if len(s.Containers) > 0 {
		rows = append(rows, card("Containers", renderContainers(s.Containers, 8)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	bar := fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
	return levelStyles[model.Level(pct)].Render(bar)
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline scales percentages (0-100) onto block runes, newest last.
func sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(v / 100 * float64(len(sparkRunes)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		b.WriteRune(sparkRunes[idx])
	}
	return subtleStyle.Render(b.String())
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func renderNetwork(ifaces []model.NetworkInterface, limit int) string {
	max := min(limit, len(ifaces))
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %10s %10s\n", "iface", "rx/s", "tx/s")
	for i := 0; i < max; i++ {
		n := ifaces[i]
		fmt.Fprintf(&b, "%-10s %10s %10s\n", truncate(n.Iface, 10),
			model.FormatBytes(n.RxBytesPerSec, 1), model.FormatBytes(n.TxBytesPerSec, 1))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDisks(disks []model.Disk, limit int) string {
	max := min(limit, len(disks))
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %9s %9s %6s\n", "mount", "used", "size", "use")
	for i := 0; i < max; i++ {
		d := disks[i]
		pct := levelStyles[model.Level(d.UsedPercent)].Render(fmt.Sprintf("%5.1f%%", d.UsedPercent))
		fmt.Fprintf(&b, "%-14s %9s %9s %s\n", truncate(d.Mount, 14),
			model.FormatBytes(d.Used, 1), model.FormatBytes(d.Size, 1), pct)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderProcesses(rows []model.Process, limit int) string {
	max := min(limit, len(rows))
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-7s %-8s %6s %6s\n", "cmd", "pid", "user", "cpu", "mem")
	for i := 0; i < max; i++ {
		r := rows[i]
		fmt.Fprintf(&b, "%-18s %-7d %-8s %6.1f %6.1f\n",
			truncate(r.Name, 18), r.PID, truncate(r.User, 8), r.CPU, r.MemPercent)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderContainers(rows []model.Container, limit int) string {
	max := min(limit, len(rows))
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-8s %6s %19s %9s %9s\n", "name", "state", "cpu", "mem", "rx", "tx")
	for i := 0; i < max; i++ {
		c := rows[i]
		fmt.Fprintf(&b, "%-16s %-8s %5.1f%% %9s/%-9s %9s %9s\n",
			truncate(c.Name, 16), c.State, c.CPUPercent,
			model.FormatBytes(c.MemUsed, 0), model.FormatBytes(c.MemLimit, 0),
			model.FormatBytes(c.NetRx, 1), model.FormatBytes(c.NetTx, 1))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Run starts the Bubble Tea program.
func Run(s Streamer, historySize int) error {
	prog := tea.NewProgram(New(s, historySize), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
