package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

// styles are bound to the output's renderer so that a pipe or file gets
// plain text while a terminal gets colour
type styles struct {
	title  lipgloss.Style
	option lipgloss.Style
	prompt lipgloss.Style
	ok     lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	id     lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(accent),
		option: r.NewStyle().Foreground(dim),
		prompt: r.NewStyle().Bold(true),
		ok:     r.NewStyle().Foreground(success),
		fail:   r.NewStyle().Foreground(danger).Bold(true),
		warn:   r.NewStyle().Foreground(warning),
		id:     r.NewStyle().Foreground(accent),
		muted:  r.NewStyle().Foreground(dim),
	}
}
