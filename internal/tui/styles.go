package tui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	DimTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	SubtitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).PaddingLeft(2)
	SpinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	SuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	WarningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
