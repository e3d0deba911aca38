package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/psychometric/internal/ui/theme"
)

// ScoreBar displays a trait score as a horizontal bar.
type ScoreBar struct {
	Label      string
	LabelWidth int
	// Score is on a 0-100 scale.
	Score float64
	Width int
}

// NewScoreBar creates a score bar Width cells wide, including the label
// and the numeric score.
func NewScoreBar(label string, score float64, labelWidth, width int) ScoreBar {
	return ScoreBar{
		Label:      label,
		LabelWidth: labelWidth,
		Score:      score,
		Width:      width,
	}
}

// View renders the bar.
func (b ScoreBar) View() string {
	var result string

	if b.Label != "" {
		label := b.Label
		if pad := b.LabelWidth - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		result += theme.Body.Render(label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	const scoreWidth = 5 // "  100"

	barWidth := b.Width - labelWidth - scoreWidth
	if barWidth < 4 {
		barWidth = 4
	}

	score := min(max(b.Score, 0), 100)
	filled := int(float64(barWidth) * score / 100)
	empty := barWidth - filled

	result += theme.BarFilled.Render(strings.Repeat(" ", filled))
	result += theme.BarEmpty.Render(strings.Repeat(" ", empty))
	result += theme.Hint.UnsetItalic().Render(fmt.Sprintf("%5d", int(score+0.5)))

	return result
}
