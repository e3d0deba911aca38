package radar

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"
)

var gridRings = []float64{0.25, 0.5, 0.75, 1}

// WriteSVG renders the chart as a standalone SVG document. An insufficient
// chart renders a short notice instead of a polygon.
func (c Chart) WriteSVG(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(2*c.Config.Center.X), num(2*c.Config.Center.Y), num(2*c.Config.Center.X), num(2*c.Config.Center.Y))
	b.WriteString("\n")

	if !c.Sufficient {
		fmt.Fprintf(&b, `  <text x="%s" y="%s" text-anchor="middle" font-family="sans-serif" font-size="12">Not enough trait data for a chart</text>`+"\n",
			num(c.Config.Center.X), num(c.Config.Center.Y))
		b.WriteString("</svg>\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, f := range gridRings {
		fmt.Fprintf(&b, `  <polygon points="%s" fill="none" stroke="#e5e7eb"/>`+"\n", points(c.Ring(f)))
	}
	for _, a := range c.Axes {
		fmt.Fprintf(&b, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#d1d5db"/>`+"\n",
			num(c.Config.Center.X), num(c.Config.Center.Y), num(a.End.X), num(a.End.Y))
	}
	fmt.Fprintf(&b, `  <polygon points="%s" fill="#6366f1" fill-opacity="0.35" stroke="#4f46e5" stroke-width="2"/>`+"\n", points(c.Polygon))
	for _, a := range c.Axes {
		fmt.Fprintf(&b, `  <text x="%s" y="%s" text-anchor="%s" dominant-baseline="middle" font-family="sans-serif" font-size="11">%s</text>`+"\n",
			num(a.Label.X), num(a.Label.Y), anchor(a.Angle), html.EscapeString(a.Trait))
	}
	b.WriteString("</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func points(pts []Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

// anchor picks the text-anchor so labels grow away from the chart.
func anchor(angle float64) string {
	cos := math.Cos(angle)
	switch {
	case cos > 0.1:
		return "start"
	case cos < -0.1:
		return "end"
	}
	return "middle"
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
