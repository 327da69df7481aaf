// Package ui styles the operator-facing report lines.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Colors used in the report output.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
)

// Banner style for start/stop lines.
var Banner = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary)

// Label style for the text part of a summary line.
var Label = lipgloss.NewStyle().
	Foreground(colorSecondary)

// Count style for the numbers the operator actually watches.
var Count = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// Done style for run-complete lines.
var Done = lipgloss.NewStyle().
	Foreground(colorSuccess)

// NewViewsLine renders this run's aggregate view delta.
func NewViewsLine(n int64) string {
	return Label.Render("New views since last run:") + " " + Count.Render(humanize.Comma(n))
}

// CumulativeLine renders the running total since tracking began.
func CumulativeLine(n int64) string {
	return Label.Render("Cumulative total views since tracking began:") + " " + Count.Render(humanize.Comma(n))
}
