// Package viz provides a live terminal view of a running simulation.
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"kinsim/internal/kinetics"
	"kinsim/internal/network"
)

const (
	graphWidth      = 70
	graphHeight     = 12
	historyCapacity = 400
	stepsPerFrame   = 4
)

var (
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model holds the live simulation state and scrolling history buffers.
type Model struct {
	net        *network.Network
	integrator kinetics.Integrator
	state      kinetics.State
	initial    kinetics.State
	t, dt      float64
	running    bool
	history    [][]float64 // one ring per species
	paramKeys  []string
	selected   int
	failed     string
}

// NewModel initializes the live view for a compiled network.
func NewModel(net *network.Network, integ kinetics.Integrator, dt float64) Model {
	keys := make([]string, 0)
	for k := range net.GetParams() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	initial := net.InitialState()
	history := make([][]float64, net.Dim())
	for i := range history {
		history[i] = make([]float64, 0, historyCapacity)
	}

	return Model{
		net:        net,
		integrator: integ,
		state:      initial.Clone(),
		initial:    initial,
		dt:         dt,
		running:    true,
		history:    history,
		paramKeys:  keys,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		}
	case TickMsg:
		if m.running && m.failed == "" {
			for i := 0; i < stepsPerFrame; i++ {
				m.step()
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	m.state = m.integrator.Step(m.net, m.state, m.t, m.dt)
	m.t += m.dt

	if !m.state.IsValid() {
		m.failed = fmt.Sprintf("state diverged at t=%.3f", m.t)
		m.running = false
		return
	}

	for i, v := range m.state {
		m.history[i] = append(m.history[i], v)
		if len(m.history[i]) > historyCapacity {
			m.history[i] = m.history[i][1:]
		}
	}
}

func (m *Model) reset() {
	m.state = m.initial.Clone()
	m.t = 0
	m.failed = ""
	for i := range m.history {
		m.history[i] = m.history[i][:0]
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.net.GetParams()[key]
	if val == 0 {
		val = 1e-6
	}
	m.net.SetParam(key, val*factor)
}

func (m Model) View() string {
	var sb strings.Builder

	title := "kinsim live"
	if m.failed != "" {
		title += "  [" + m.failed + "]"
	}
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")

	names := m.net.SpeciesNames()
	if len(m.history) > 0 && len(m.history[0]) > 1 {
		graph := asciigraph.PlotMany(m.history,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.SeriesLegends(names...),
		)
		sb.WriteString(graphStyle.Render(graph))
		sb.WriteString("\n")
	}

	sb.WriteString(labelStyle.Render("t") + valueStyle.Render(fmt.Sprintf("%.3f", m.t)) + "\n")
	for i, name := range names {
		sb.WriteString(labelStyle.Render("["+name+"]") + valueStyle.Render(fmt.Sprintf("%.4f", m.state[i])) + "\n")
	}

	if len(m.paramKeys) > 0 {
		sb.WriteString("\n")
		params := m.net.GetParams()
		for i, key := range m.paramKeys {
			line := fmt.Sprintf("%s = %.4g", key, params[key])
			if i == m.selected {
				sb.WriteString(activeParamStyle.Render("> " + line))
			} else {
				sb.WriteString(valueStyle.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(helpStyle.Render("space pause · r reset · tab param · ↑/↓ adjust · q quit"))
	return sb.String()
}
