package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/ddrgen/models"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorText      = lipgloss.Color("252") // White/Gray

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)

	// Components
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)
)

// SeverityBadge renders the analyzer's severity level in its conventional
// color: High red, Medium orange, Low green.
func SeverityBadge(level models.SeverityLevel) string {
	return severityStyle(level).Render(string(level))
}

func severityStyle(level models.SeverityLevel) lipgloss.Style {
	switch level {
	case models.SeverityHigh:
		return StyleError.Bold(true)
	case models.SeverityMedium:
		return StyleWarning
	case models.SeverityLow:
		return StyleSuccess
	default:
		return StyleSubtle
	}
}

// StatusCell renders a run or batch item status in its color.
func StatusCell(status string) string {
	return statusStyle(status).Render(status)
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "succeeded":
		return StyleSuccess
	case "failed":
		return StyleError
	case "running":
		return StylePrimary
	default:
		return StyleSubtle
	}
}
