// Package console renders human-readable driver output: diagnostics,
// progress lines, and job tables. It is strictly separate from the JSON
// event stream of "asterc build --json" (see cmd/asterc/build.go), which
// is newline-delimited JSON and never passes through here.
package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorError   = lipgloss.AdaptiveColor{Light: "#D73737", Dark: "#FF5555"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FFB86C"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#27AE60", Dark: "#50FA7B"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "#2980B9", Dark: "#8BE9FD"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6C7A89", Dark: "#6272A4"}

	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
)

// isTTY reports whether stderr is attached to a terminal; output styling
// degrades to plain text otherwise (redirected to a file, piped to another
// process, running under CI).
func isTTY() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}

func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// FormatErrorMessage formats a plain error line for stderr.
func FormatErrorMessage(message string) string {
	return applyStyle(styleError, "✗ ") + message
}

// FormatWarningMessage formats a plain warning line for stderr.
func FormatWarningMessage(message string) string {
	return applyStyle(styleWarning, "⚠ ") + message
}

// FormatSuccessMessage formats a plain success line for stderr.
func FormatSuccessMessage(message string) string {
	return applyStyle(styleSuccess, "✓ ") + message
}

// FormatInfoMessage formats a plain informational line for stderr.
func FormatInfoMessage(message string) string {
	return applyStyle(styleInfo, "ℹ ") + message
}

// FormatVerboseMessage formats a verbose/debug line for stderr.
func FormatVerboseMessage(message string) string {
	return applyStyle(styleMuted, "· ") + message
}

// ErrorPosition is a location in a source file, used when a diagnostic
// can be pinned to a line and column.
type ErrorPosition struct {
	File   string
	Line   int
	Column int
}

// Diagnostic is a structured message for display; the severity-specific
// ANSI styling and file:line:column prefixing happen here, but the
// underlying wording is the caller's.
type Diagnostic struct {
	Position ErrorPosition
	Severity string // "error", "warning", "info"
	Message  string
}

// FormatDiagnostic renders a Diagnostic as an IDE-parseable
// "file:line:column: severity: message" line, falling back to a bare
// severity-prefixed line when no position is set.
func FormatDiagnostic(d Diagnostic) string {
	var style lipgloss.Style
	var prefix string
	switch d.Severity {
	case "warning":
		style, prefix = styleWarning, "warning"
	case "info":
		style, prefix = styleInfo, "info"
	default:
		style, prefix = styleError, "error"
	}

	var b strings.Builder
	if d.Position.File != "" {
		fmt.Fprintf(&b, "%s:%d:%d: ", d.Position.File, d.Position.Line, d.Position.Column)
	}
	b.WriteString(applyStyle(style, prefix+": "))
	b.WriteString(d.Message)
	return b.String()
}
