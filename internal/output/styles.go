package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Use these instead of inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: asset paths, plan names, class refs.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for COMPLETE.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for intermediate states and warnings.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for failure states (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)

	// StyleWarning styles anomaly lines.
	StyleWarning = lipgloss.NewStyle().Foreground(ColorYellow)
)

// StatusStyle returns the style for a migration status string. Unknown
// statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "COMPLETE":
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case "SKIPPED_IDEMPOTENT":
		return lipgloss.NewStyle().Faint(true)
	case "CLEANED", "REPARENTED", "PENDING":
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case "PRECHECK_FAILED", "VERIFICATION_FAILED":
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minPlanColumnWidth aligns status words across plan lines.
const minPlanColumnWidth = 48

// FormatPlanLine renders "p:<target>  <status>" with a right-aligned,
// colour-coded status.
func FormatPlanLine(target, status string) string {
	padding := minPlanColumnWidth - len(target)
	if padding < 2 {
		padding = 2
	}
	return StyleDim.Render("p:") + StyleNoun.Render(target) +
		strings.Repeat(" ", padding) + StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatCross renders a red cross with a message.
func FormatCross(msg string) string {
	cross := lipgloss.NewStyle().Foreground(ColorBoldRed).Render("✘")
	return cross + " " + msg
}
