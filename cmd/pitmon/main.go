// Command pitmon is a live terminal register inspector for a standalone
// PIT instance: it renders all three channels' counter, mode, and OUT
// state at a fixed refresh rate, in the shape of a bubbletea CPU monitor.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vmcore/pit8254/internal/config"
	"github.com/vmcore/pit8254/internal/devices/chipset"
)

const refreshInterval = 100 * time.Millisecond

type refreshTick struct{}

func doRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTick{}
	})
}

// channelState is a snapshot of one channel's visible registers, used only
// to detect what changed since the last refresh.
type channelState struct {
	count uint16
	mode  chipset.Mode
	out   bool
}

type monitor struct {
	pit *chipset.PIT
	pic *chipset.DualPIC

	paused    bool
	selected  int
	lastState [3]channelState
	irqLevel  bool
	gate2     bool // channel 2's gate as last driven from here; low after reset

	editing   string // "", "mode", or "count"
	input     textinput.Model
	statusMsg string
}

var (
	subtle  = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	accent  = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	changed = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}

	titleStyle = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1).
			Width(34)

	selectedPanelStyle = panelStyle.BorderForeground(lipgloss.Color("#73F59F"))

	changedStyle = lipgloss.NewStyle().Foreground(changed).Bold(true)
)

func newMonitor(pit *chipset.PIT, pic *chipset.DualPIC) *monitor {
	ti := textinput.New()
	ti.CharLimit = 6
	ti.Width = 8

	m := &monitor{
		pit:   pit,
		pic:   pic,
		input: ti,
	}
	pic.SetReadySink(chipset.ReadySinkFunc(func(level bool) { m.irqLevel = level }))
	return m
}

func (m *monitor) Init() tea.Cmd {
	return doRefresh()
}

func (m *monitor) snapshot(idx int) channelState {
	count, _ := m.pit.ChannelCount(idx)
	mode, _ := m.pit.ChannelMode(idx)
	out, _ := m.pit.ChannelOutputLevel(idx)
	return channelState{count: count, mode: mode, out: out}
}

func (m *monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshTick:
		if m.paused {
			return m, doRefresh()
		}
		for i := 0; i < 3; i++ {
			m.lastState[i] = m.snapshot(i)
		}
		return m, doRefresh()

	case tea.KeyMsg:
		if m.editing != "" {
			switch msg.Type {
			case tea.KeyEnter:
				m.applyEdit()
				m.editing = ""
				return m, nil
			case tea.KeyEsc:
				m.editing = ""
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.selected = (m.selected + 1) % 3
		case "p":
			m.paused = !m.paused
		case "m":
			m.startEdit("mode")
		case "c":
			m.startEdit("count")
		case "g":
			if m.selected != 2 {
				m.statusMsg = "gate control is only wired to channel 2"
				return m, nil
			}
			level := !m.gate2
			if err := m.pit.SetGate(2, level); err != nil {
				m.statusMsg = err.Error()
			} else {
				m.gate2 = level
				m.statusMsg = fmt.Sprintf("channel 2 gate set to %v", level)
			}
		}
	}
	return m, nil
}

func (m *monitor) startEdit(field string) {
	m.editing = field
	m.input.SetValue("")
	switch field {
	case "mode":
		m.input.Placeholder = "0-5"
	case "count":
		m.input.Placeholder = "0-65535"
	}
	m.input.Focus()
}

// applyEdit programs the selected channel's mode or count through the
// same control-word-then-count-bytes sequence a guest driver issues,
// defaulting to LSB/MSB access and binary counting.
func (m *monitor) applyEdit() {
	value := strings.TrimSpace(m.input.Value())
	n, err := strconv.Atoi(value)
	if err != nil {
		m.statusMsg = fmt.Sprintf("invalid number %q", value)
		return
	}

	ch := m.selected
	ports := m.pit.IOPorts()
	controlPort := ports[3]
	channelPort := ports[ch]

	switch m.editing {
	case "mode":
		if n < 0 || n > 5 {
			m.statusMsg = "mode must be 0-5"
			return
		}
		cw := byte(ch)<<6 | 0x3<<4 | byte(n)<<1
		if err := m.pit.WriteIOPort(nil, controlPort, []byte{cw}); err != nil {
			m.statusMsg = err.Error()
			return
		}
		m.statusMsg = fmt.Sprintf("channel %d mode set to %d", ch, n)
	case "count":
		if n < 0 || n > 0xFFFF {
			m.statusMsg = "count must be 0-65535"
			return
		}
		mode, _ := m.pit.ChannelMode(ch)
		cw := byte(ch)<<6 | 0x3<<4 | byte(mode)<<1
		if err := m.pit.WriteIOPort(nil, controlPort, []byte{cw}); err != nil {
			m.statusMsg = err.Error()
			return
		}
		v := uint16(n)
		if err := m.pit.WriteIOPort(nil, channelPort, []byte{byte(v)}); err != nil {
			m.statusMsg = err.Error()
			return
		}
		if err := m.pit.WriteIOPort(nil, channelPort, []byte{byte(v >> 8)}); err != nil {
			m.statusMsg = err.Error()
			return
		}
		m.statusMsg = fmt.Sprintf("channel %d count loaded with %d", ch, n)
	}
}

func (m *monitor) renderChannel(idx int) string {
	state := m.snapshot(idx)
	last := m.lastState[idx]

	style := panelStyle
	if idx == m.selected {
		style = selectedPanelStyle
	}

	line := func(label, value string, dirty bool) string {
		text := fmt.Sprintf("%-6s %s", label, value)
		if dirty {
			return changedStyle.Render(text)
		}
		return text
	}

	body := strings.Join([]string{
		line("mode", fmt.Sprintf("%d", state.mode), state.mode != last.mode),
		line("count", fmt.Sprintf("%d", state.count), state.count != last.count),
		line("out", fmt.Sprintf("%v", state.out), state.out != last.out),
	}, "\n")

	return style.Render(fmt.Sprintf("channel %d\n\n%s", idx, body))
}

func (m *monitor) View() string {
	panels := make([]string, 3)
	for i := 0; i < 3; i++ {
		panels[i] = m.renderChannel(i)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, panels...)

	irqLine := fmt.Sprintf("irq line level=%v", m.irqLevel)

	help := "tab: select channel  m: set mode  c: set count  g: toggle channel-2 gate  p: pause  q: quit"
	if m.paused {
		help = "paused — " + help
	}

	var out strings.Builder
	out.WriteString(row)
	out.WriteString("\n")
	out.WriteString(titleStyle.Render(irqLine))
	out.WriteString("\n")
	if m.editing != "" {
		out.WriteString(fmt.Sprintf("set %s: %s\n", m.editing, m.input.View()))
	}
	if m.statusMsg != "" {
		out.WriteString(m.statusMsg + "\n")
	}
	out.WriteString(titleStyle.Render(help))
	return out.String()
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("config", "", "YAML file with irq/iobase overrides")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	cfg := config.DefaultPITConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pitmon: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	pic := chipset.NewDualPIC()
	pit := chipset.NewPIT(pic,
		chipset.WithPITIOBase(cfg.IOBase),
		chipset.WithPITIRQLine(cfg.IRQ),
	)

	p := tea.NewProgram(newMonitor(pit, pic))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pitmon: %v\n", err)
		os.Exit(1)
	}
}
