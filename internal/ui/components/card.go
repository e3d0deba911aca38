package components

import (
	"strings"

	"github.com/abhisek/psychometric/internal/ui/theme"
)

// Section renders a titled card. Empty lines are dropped.
func Section(title string, width int, lines ...string) string {
	var body []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			body = append(body, l)
		}
	}
	if len(body) == 0 {
		body = []string{theme.Hint.Render("none")}
	}
	content := theme.Heading.Render(title) + "\n" + strings.Join(body, "\n")
	return theme.Card.Width(width).Render(content)
}

// Bullets prefixes each item with a green or red bullet.
func Bullets(items []string, positive bool) []string {
	style := theme.Negative
	if positive {
		style = theme.Positive
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = style.Render("•") + " " + theme.Body.Render(it)
	}
	return out
}
