package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// StyleManager holds the console styles used for run messages
type StyleManager struct {
	Info    lipgloss.Style
	Warn    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Path    lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns styles rendered for the given writer. Colors are
// dropped automatically when w is not a terminal.
func DefaultStyles(w io.Writer) *StyleManager {
	r := lipgloss.NewRenderer(w)
	return &StyleManager{
		Info:    r.NewStyle(),
		Warn:    r.NewStyle().Foreground(parseANSIColor("33")),
		Success: r.NewStyle().Foreground(parseANSIColor("32")),
		Error:   r.NewStyle().Bold(true).Foreground(parseANSIColor("31")),
		Path:    r.NewStyle().Foreground(parseANSIColor("36")),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// parseANSIColor converts ANSI color codes to lipgloss colors
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}
