package ui

import "github.com/charmbracelet/lipgloss"

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tabActive      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	buyStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sellStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	holdStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	symbolHlStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	scoreUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	scoreDownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	adminStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	highlightBG    = lipgloss.Color("236")
)

// hlStyle returns a copy of s with the highlight background applied when hl is true.
func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

// suggestionStyle picks the style for a buy/sell/hold call.
func suggestionStyle(s string) lipgloss.Style {
	switch s {
	case "buy":
		return buyStyle
	case "sell":
		return sellStyle
	case "hold":
		return holdStyle
	}
	return dimStyle
}
