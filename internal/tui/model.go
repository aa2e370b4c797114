package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	progrocktracer "github.com/gantryproject/gantry/internal/adapters/telemetry/progrock"
)

const (
	statusPending = "pending"
	statusActive  = "active"
	statusDone    = "done"
	statusCached  = "cached"
	statusFailed  = "failed"
)

// Row is one rendered line of progress: an instance or a build.
type Row struct {
	ID     string
	Name   string
	Status string
}

type styles struct {
	active lipgloss.Style
	done   lipgloss.Style
	cached lipgloss.Style
	failed lipgloss.Style
	pend   lipgloss.Style
}

// planID is the vertex id the tracer uses for the run plan. Its output
// lists the planned instances, which seed the pending rows.
var planID = digest.FromString(progrocktracer.PlanVertexName).String()

// Model is the Bubble Tea model for run progress. It reads progrock
// updates from an UpdateSource and keeps one row per vertex.
type Model struct {
	source  UpdateSource
	rows    []Row
	planBuf strings.Builder
	width   int
	height  int
	spinner spinner.Model
	styles  styles
}

// NewModel creates a progress model reading from the given source.
func NewModel(source UpdateSource) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))

	return &Model{
		source:  source,
		spinner: s,
		styles: styles{
			active: lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")),
			done:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			cached: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			failed: lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
			pend:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

// Init starts reading from the source.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForUpdate(m.source),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgUpdate:
		m.apply(msg.Update)
		return m, WaitForUpdate(m.source)
	case MsgStreamEnded:
		return m, tea.Quit
	}
	return m, nil
}

// apply folds one status update into the rows.
func (m *Model) apply(update *progrock.StatusUpdate) {
	for _, l := range update.Logs {
		if l.Vertex == planID {
			m.planBuf.Write(l.Data)
		}
	}

	for _, v := range update.Vertexes {
		if v.Id == planID {
			if v.Completed != nil {
				m.seedPlan()
			}
			continue
		}
		m.updateOrAddRow(v)
	}
}

// seedPlan turns the plan vertex's output lines into pending rows, in plan
// order, before any of them starts.
func (m *Model) seedPlan() {
	for _, line := range strings.Split(m.planBuf.String(), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		if m.findRow(digest.FromString(id).String()) >= 0 {
			continue
		}
		m.rows = append(m.rows, Row{
			ID:     digest.FromString(id).String(),
			Name:   id,
			Status: statusPending,
		})
	}
}

func (m *Model) findRow(id string) int {
	for i := range m.rows {
		if m.rows[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) updateOrAddRow(v *progrock.Vertex) {
	i := m.findRow(v.Id)
	if i < 0 {
		m.rows = append(m.rows, Row{ID: v.Id, Name: v.Name, Status: statusActive})
		i = len(m.rows) - 1
	}
	m.rows[i].Status = rowStatus(v)
}

// rowStatus maps a vertex's progrock state onto a row status.
func rowStatus(v *progrock.Vertex) string {
	switch {
	case v.Cached:
		return statusCached
	case v.Completed == nil:
		return statusActive
	case v.Error != nil:
		return statusFailed
	default:
		return statusDone
	}
}

// View renders the summary line and one row per vertex, newest rows kept
// visible when the list outgrows the window.
func (m *Model) View() string {
	var s strings.Builder

	s.WriteString(m.summary())
	s.WriteString("\n")

	rows := m.height - 1
	start := 0
	if rows > 0 && len(m.rows) > rows {
		start = len(m.rows) - rows
	}

	for i := start; i < len(m.rows); i++ {
		r := m.rows[i]

		var icon string
		var style lipgloss.Style
		switch r.Status {
		case statusActive:
			icon = m.spinner.View()
			style = m.styles.active
		case statusDone:
			icon = "✓"
			style = m.styles.done
		case statusCached:
			icon = "⚡"
			style = m.styles.cached
		case statusFailed:
			icon = "✗"
			style = m.styles.failed
		default:
			icon = "•"
			style = m.styles.pend
		}

		fmt.Fprintf(&s, "%s %s\n", style.Render(icon), r.Name)
	}

	return s.String()
}

func (m *Model) summary() string {
	var active, done, failed int
	for _, r := range m.rows {
		switch r.Status {
		case statusActive:
			active++
		case statusDone, statusCached:
			done++
		case statusFailed:
			failed++
		}
	}
	return fmt.Sprintf("%d active, %d done, %d failed", active, done, failed)
}
