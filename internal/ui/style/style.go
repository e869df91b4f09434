// Package style holds the colors and icons shared by the logger and the reports.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Slate  = lipgloss.Color("#667085")
	Dim    = lipgloss.Color("#98A2B3")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Info    = "i"
	Arrow   = "→"
	Dot     = "●"
)
