// Package dashboard renders the display component in a terminal.
package dashboard

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leslieo2/devstack/internal/display"
)

// resolvedMsg carries the terminal view of the component.
type resolvedMsg struct {
	view display.View
}

type Model struct {
	ctx       context.Context
	component *display.Component
	spinner   spinner.Model
	view      display.View
	backend   string
	stop      chan struct{}
	quitting  bool
}

// New creates a dashboard whose single fetch is bound to ctx.
func New(ctx context.Context, fetcher display.Fetcher, backendURL string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loadingStyle

	return &Model{
		ctx:       ctx,
		component: display.NewComponent(fetcher),
		spinner:   s,
		view:      display.View{Status: display.StatusLoading},
		backend:   backendURL,
		stop:      make(chan struct{}),
	}
}

// Init mounts the component and waits for it to settle.
func (m *Model) Init() tea.Cmd {
	m.component.Mount(m.ctx)
	return tea.Batch(m.spinner.Tick, m.waitForView())
}

func (m *Model) waitForView() tea.Cmd {
	done, stop := m.component.Done(), m.stop
	return func() tea.Msg {
		select {
		case <-done:
			return resolvedMsg{view: m.component.View()}
		case <-stop:
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quit()
			return m, tea.Quit
		}

	case resolvedMsg:
		m.view = msg.view
		return m, nil

	case spinner.TickMsg:
		if m.view.Status.Terminal() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// Quit unmounts the component, cancelling a fetch still in flight.
func (m *Model) Quit() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.component.Unmount()
	close(m.stop)
}

// State returns the view last applied to the model.
func (m *Model) State() display.View {
	return m.view
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🚀 DevOps Full Stack Project"))
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(m.connectionView()))
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(toolsView()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("backend: " + m.backend + "  •  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) connectionView() string {
	lines := []string{headingStyle.Render("Backend Connection")}

	switch m.view.Status {
	case display.StatusSuccess:
		lines = append(lines,
			successStyle.Render("✅ Backend connected successfully!"),
			labelStyle.Render("Message: ")+m.view.Message,
			labelStyle.Render("Environment: ")+m.view.Environment,
			labelStyle.Render("Runtime Version: ")+m.view.RuntimeVersion,
		)
	case display.StatusFailed:
		lines = append(lines, errorStyle.Render("❌ Error: "+m.view.Error))
	default:
		lines = append(lines, m.spinner.View()+loadingStyle.Render(" Connecting to backend..."))
	}

	return strings.Join(lines, "\n")
}

func toolsView() string {
	tools := display.Tools()
	cells := make([]string, 0, len(tools))
	for _, t := range tools {
		cells = append(cells, toolStyle.Render(t.Icon+"\n"+t.Name+"\n"+toolDescStyle.Render(t.Description)))
	}
	return headingStyle.Render("DevOps Tools Used") + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}
