package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// Terminal output styles. Colors are hex codes.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5fd2"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	idStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5fd7ff"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd75f"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff5f"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff005f"))
)

const (
	commentWidth = 60
	wrapWidth    = 76
)

// clip shortens single-line text for table-like output.
func clip(s string, width uint) string {
	return truncate.StringWithTail(s, width, "…")
}

// wrap breaks long text for indented output.
func wrap(s string) string {
	return wordwrap.String(s, wrapWidth)
}
