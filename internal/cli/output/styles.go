package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by CLI output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	green := lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	yellow := lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	red := lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	gray := lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}

	return &Styles{
		Header1: r.NewStyle().Bold(true).Underline(true),
		Header2: r.NewStyle().Bold(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(gray),
		Key:     r.NewStyle().Foreground(gray),

		Success: r.NewStyle().Foreground(green),
		Warning: r.NewStyle().Foreground(yellow),
		Error:   r.NewStyle().Foreground(red),

		StatusSuccess: r.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(red).SetString("✗"),
	}
}

// ScoreStyle picks the style for a 0-100 quality score.
func (s *Styles) ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 75:
		return s.Success
	case score >= 60:
		return s.Warning
	default:
		return s.Error
	}
}
