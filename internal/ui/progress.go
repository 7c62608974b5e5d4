package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/ddrgen/internal/batch"
)

// BatchDoneMsg ends the progress view once the runner has finished and the
// event channel is closed.
type BatchDoneMsg struct{}

type propertyState struct {
	state   batch.ItemState
	message string
}

// BatchModel is the interactive progress view for one batch run: a status
// line per property, driven by the runner's item events.
type BatchModel struct {
	order  []string
	states map[string]*propertyState
	events <-chan batch.ItemEvent
	spin   spinner.Model

	done     bool
	quitting bool
}

// NewBatchModel builds the view for the given properties, in manifest order.
// The runner's WithItemFunc callback must feed events; close the channel
// when the run returns.
func NewBatchModel(propertyIDs []string, events <-chan batch.ItemEvent) BatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	states := make(map[string]*propertyState, len(propertyIDs))
	for _, id := range propertyIDs {
		states[id] = &propertyState{message: "waiting"}
	}

	return BatchModel{
		order:  propertyIDs,
		states: states,
		events: events,
		spin:   s,
	}
}

func (m BatchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, listenForItems(m.events))
}

func listenForItems(events <-chan batch.ItemEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return BatchDoneMsg{}
		}
		return ev
	}
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case batch.ItemEvent:
		if st, ok := m.states[msg.PropertyID]; ok {
			st.state = msg.State
			st.message = msg.Message
		}
		return m, listenForItems(m.events)

	case BatchDoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m BatchModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(" Generating reports...\n")

	for _, id := range m.order {
		st := m.states[id]
		s.WriteString(" ")
		switch st.state {
		case batch.ItemRunning:
			s.WriteString(m.spin.View())
			s.WriteString("  ")
			s.WriteString(StyleTitle.Render(fmt.Sprintf("%-14s", id)))
			s.WriteString(" ")
			s.WriteString(StyleSubtle.Render("generating..."))
		case batch.ItemSucceeded:
			s.WriteString(StyleSuccess.Render("✓"))
			s.WriteString("  ")
			s.WriteString(StyleTitle.Render(fmt.Sprintf("%-14s", id)))
			s.WriteString(" ")
			s.WriteString(StyleSuccess.Render(st.message))
		case batch.ItemFailed:
			s.WriteString(StyleError.Render("✗"))
			s.WriteString("  ")
			s.WriteString(StyleTitle.Render(fmt.Sprintf("%-14s", id)))
			s.WriteString(" ")
			s.WriteString(StyleError.Render(st.message))
		default:
			s.WriteString(StyleSubtle.Render("•"))
			s.WriteString("  ")
			s.WriteString(StyleTitle.Render(fmt.Sprintf("%-14s", id)))
			s.WriteString(" ")
			s.WriteString(StyleSubtle.Render(st.message))
		}
		s.WriteString("\n")
	}

	return s.String()
}
