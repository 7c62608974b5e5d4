package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/kestrelhq/ddrgen/models"
)

func TestStyles(t *testing.T) {
	// Force color profile for testing
	lipgloss.SetColorProfile(termenv.ANSI256)

	// Verify critical styles are defined and return something
	assert.NotNil(t, StyleTitle)
	assert.NotNil(t, StyleSuccess)

	out := StyleSuccess.Render("Test")
	assert.Contains(t, out, "Test")
	// Verify ANSI codes are present
	assert.NotEqual(t, "Test", out, "Style should add ANSI codes when forced")
}

func TestSeverityBadge(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	for _, level := range []models.SeverityLevel{models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		out := SeverityBadge(level)
		assert.Contains(t, out, string(level))
		assert.NotEqual(t, string(level), out, "badge should add ANSI codes when forced")
	}
}

func TestSeverityBadge_UnknownLevelStaysSubtle(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	out := SeverityBadge(models.SeverityLevel("Catastrophic"))
	assert.Contains(t, out, "Catastrophic")
	assert.Equal(t, StyleSubtle.Render("Catastrophic"), out)
}

func TestStatusCell(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	succeeded := StatusCell("succeeded")
	failed := StatusCell("failed")

	assert.Contains(t, succeeded, "succeeded")
	assert.Contains(t, failed, "failed")
	assert.NotEqual(t, succeeded, failed)
}
