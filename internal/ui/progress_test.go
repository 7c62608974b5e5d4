package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/kestrelhq/ddrgen/internal/batch"
)

func TestBatchModel_TracksItemEvents(t *testing.T) {
	events := make(chan batch.ItemEvent, 4)
	m := NewBatchModel([]string{"PROP-001", "PROP-002"}, events)

	view := m.View()
	assert.Contains(t, view, "PROP-001")
	assert.Contains(t, view, "PROP-002")
	assert.Contains(t, view, "waiting")

	next, cmd := m.Update(batch.ItemEvent{PropertyID: "PROP-001", State: batch.ItemRunning})
	m = next.(BatchModel)
	assert.NotNil(t, cmd, "model should keep listening after an event")
	assert.Contains(t, m.View(), "generating...")

	next, _ = m.Update(batch.ItemEvent{
		PropertyID: "PROP-001",
		State:      batch.ItemSucceeded,
		Message:    "out/ddr_PROP-001.json",
	})
	m = next.(BatchModel)
	assert.Contains(t, m.View(), "✓")
	assert.Contains(t, m.View(), "out/ddr_PROP-001.json")

	next, _ = m.Update(batch.ItemEvent{
		PropertyID: "PROP-002",
		State:      batch.ItemFailed,
		Message:    "stage Merge: empty merge input",
	})
	m = next.(BatchModel)
	assert.Contains(t, m.View(), "✗")
	assert.Contains(t, m.View(), "stage Merge: empty merge input")
}

func TestBatchModel_UnknownPropertyIgnored(t *testing.T) {
	events := make(chan batch.ItemEvent)
	m := NewBatchModel([]string{"PROP-001"}, events)

	next, _ := m.Update(batch.ItemEvent{PropertyID: "PROP-999", State: batch.ItemSucceeded})
	m = next.(BatchModel)
	assert.Contains(t, m.View(), "waiting")
	assert.NotContains(t, m.View(), "✓")
}

func TestBatchModel_DoneQuits(t *testing.T) {
	events := make(chan batch.ItemEvent)
	m := NewBatchModel([]string{"PROP-001"}, events)

	next, cmd := m.Update(BatchDoneMsg{})
	m = next.(BatchModel)
	assert.True(t, m.done)
	assert.NotNil(t, cmd, "done should issue tea.Quit")
}

func TestBatchModel_QuitKey(t *testing.T) {
	events := make(chan batch.ItemEvent)
	m := NewBatchModel([]string{"PROP-001"}, events)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(BatchModel)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View(), "quitting view should clear")
}

func TestListenForItems_ClosedChannelSignalsDone(t *testing.T) {
	events := make(chan batch.ItemEvent)
	close(events)

	msg := listenForItems(events)()
	assert.IsType(t, BatchDoneMsg{}, msg)
}

func TestListenForItems_DeliversEvent(t *testing.T) {
	events := make(chan batch.ItemEvent, 1)
	events <- batch.ItemEvent{PropertyID: "PROP-001", State: batch.ItemRunning}

	msg := listenForItems(events)()
	ev, ok := msg.(batch.ItemEvent)
	assert.True(t, ok)
	assert.Equal(t, "PROP-001", ev.PropertyID)
}
