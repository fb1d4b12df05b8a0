package views

import (
	"github.com/charmbracelet/lipgloss"

	"hackhub/internal/domain"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Filter        lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	Footer        lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	Dropdown      lipgloss.Style
	Highlight     lipgloss.Style
	SelectionBg   lipgloss.Style
	Tag           lipgloss.Style
	Banner        lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim:    lipgloss.NewStyle().Faint(true),
		Filter: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Help:   lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2),
		Footer:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		TabActive:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62")).Padding(0, 1),
		TabInactive: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1),
		Dropdown: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Tag:           lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Banner:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Padding(0, 1),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}

// KindColor returns the badge color for a result kind
func KindColor(kind domain.Kind) string {
	switch kind {
	case domain.KindEvent:
		return "78" // green
	case domain.KindArticle:
		return "33" // blue
	default:
		return "245"
	}
}
