// Package radar projects trait scores onto the vertices of a radar chart.
package radar

import (
	"math"

	"github.com/abhisek/psychometric/internal/assessment"
)

// MinTraits is the smallest number of traits that forms a polygon.
const MinTraits = 3

// DefaultLabelOffset is how far past the outer ring labels are anchored.
const DefaultLabelOffset = 20.0

// Point is a 2D coordinate in chart space. Y grows downward, as in SVG.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config describes the chart geometry.
type Config struct {
	Radius      float64 `json:"radius"`
	LabelOffset float64 `json:"labelOffset"`
	Center      Point   `json:"center"`
}

// DefaultConfig returns a 300x300 chart with radius 110.
func DefaultConfig() Config {
	return Config{Radius: 110, LabelOffset: DefaultLabelOffset, Center: Point{X: 150, Y: 150}}
}

// Axis is one spoke of the chart.
type Axis struct {
	Trait string  `json:"trait"`
	Score float64 `json:"score"`
	// Angle in radians; -π/2 points straight up.
	Angle float64 `json:"angle"`
	// End is the outer end of the axis segment that starts at the center.
	End   Point `json:"end"`
	Point Point `json:"point"`
	Label Point `json:"label"`
}

// Chart is the projected radar chart. When Sufficient is false there were
// fewer than MinTraits traits and Axes is empty.
type Chart struct {
	Sufficient bool    `json:"sufficient"`
	Config     Config  `json:"config"`
	Axes       []Axis  `json:"axes"`
	Polygon    []Point `json:"polygon"`
}

// Project maps scores onto the chart. Scores are clamped to [0,100] and
// trait i sits at angle i·2π/n − π/2, so the first trait is at the top and
// the rest follow clockwise.
func Project(scores []assessment.TraitScore, cfg Config) Chart {
	chart := Chart{Config: cfg}
	n := len(scores)
	if n < MinTraits {
		return chart
	}
	chart.Sufficient = true
	chart.Axes = make([]Axis, n)
	chart.Polygon = make([]Point, n)

	for i, s := range scores {
		angle := float64(i)*2*math.Pi/float64(n) - math.Pi/2
		score := clamp(s.Score)
		axis := Axis{
			Trait: s.Trait,
			Score: score,
			Angle: angle,
			End:   polar(cfg.Center, cfg.Radius, angle),
			Point: polar(cfg.Center, score/100*cfg.Radius, angle),
			Label: polar(cfg.Center, cfg.Radius+cfg.LabelOffset, angle),
		}
		chart.Axes[i] = axis
		chart.Polygon[i] = axis.Point
	}
	return chart
}

// Ring returns the polygon of a grid ring at fraction f of the radius.
func (c Chart) Ring(f float64) []Point {
	pts := make([]Point, len(c.Axes))
	for i, a := range c.Axes {
		pts[i] = polar(c.Config.Center, f*c.Config.Radius, a.Angle)
	}
	return pts
}

func polar(center Point, r, angle float64) Point {
	return Point{
		X: center.X + r*math.Cos(angle),
		Y: center.Y + r*math.Sin(angle),
	}
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
