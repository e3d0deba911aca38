package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/radar"
	"github.com/abhisek/psychometric/internal/ui/components"
	"github.com/abhisek/psychometric/internal/ui/theme"
)

const reportWidth = 72

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the stored report of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("session")
		asJSON, _ := cmd.Flags().GetBool("json")
		svgPath, _ := cmd.Flags().GetString("svg")
		ctx := cmd.Context()

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		kv, closeKV, err := openKV(ctx, s)
		if err != nil {
			return err
		}
		defer closeKV()

		a := persist.New(kv, id)
		profile, err := a.LoadProfile(ctx)
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("session %s not found", id)
		}
		report, err := a.LoadReport(ctx)
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("session %s has no report yet", id)
		}

		chart := radar.Project(report.Traits, radar.DefaultConfig())

		if svgPath != "" {
			f, err := os.Create(svgPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", svgPath, err)
			}
			if err := chart.WriteSVG(f); err != nil {
				f.Close()
				return fmt.Errorf("write radar chart: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Report *assessment.Report `json:"report"`
				Radar  radar.Chart        `json:"radar"`
			}{report, chart})
		}

		renderReport(os.Stdout, *profile, *report, chart)
		return nil
	},
}

func renderReport(w io.Writer, p assessment.UserProfile, r assessment.Report, chart radar.Chart) {
	fmt.Fprintln(w, theme.Title.Render(r.PsychologicalArchetype))
	fmt.Fprintln(w, theme.Hint.Render(fmt.Sprintf("%s, %d, %s, %s",
		p.Name, p.Age(time.Now()), p.Gender, p.Nationality)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, components.Section("Summary", reportWidth, theme.Body.Width(reportWidth-4).Render(r.Summary)))

	labelWidth := 0
	for _, t := range r.Traits {
		labelWidth = max(labelWidth, len(t.Trait))
	}
	var bars []string
	for _, t := range r.Traits {
		bars = append(bars, components.NewScoreBar(t.Trait, t.Score, labelWidth, reportWidth-4).View())
	}
	fmt.Fprintln(w, components.Section("Traits", reportWidth, bars...))

	fmt.Fprintln(w, components.Section("Strengths", reportWidth, components.Bullets(r.Strengths, true)...))
	fmt.Fprintln(w, components.Section("Weaknesses", reportWidth, components.Bullets(r.Weaknesses, false)...))
	fmt.Fprintln(w, components.Section("Relationships", reportWidth, theme.Body.Width(reportWidth-4).Render(r.RelationshipStyle)))
	fmt.Fprintln(w, components.Section("Career Fit", reportWidth, theme.Body.Width(reportWidth-4).Render(r.CareerFit)))
	if r.VisualCorrelation != "" {
		fmt.Fprintln(w, components.Section("Visual Correlation", reportWidth, theme.Body.Width(reportWidth-4).Render(r.VisualCorrelation)))
	}

	fmt.Fprintln(w, components.Section("Radar", reportWidth, radarLines(chart)...))
}

func radarLines(chart radar.Chart) []string {
	if !chart.Sufficient {
		return []string{theme.Hint.Render(fmt.Sprintf("Needs at least %d traits.", radar.MinTraits))}
	}
	lines := []string{theme.Hint.Render(fmt.Sprintf("%-20s %6s  %-16s %s", "Trait", "Score", "Point", "Axis end"))}
	for _, ax := range chart.Axes {
		lines = append(lines, fmt.Sprintf("%-20s %6.1f  (%6.1f, %6.1f)  (%6.1f, %6.1f)",
			truncate(ax.Trait, 20), ax.Score, ax.Point.X, ax.Point.Y, ax.End.X, ax.End.Y))
	}
	return lines
}

func init() {
	reportCmd.Flags().String("session", "", "Session ID (required)")
	reportCmd.Flags().Bool("json", false, "Print the report and radar projection as JSON")
	reportCmd.Flags().String("svg", "", "Also write the radar chart to this SVG file")
	_ = reportCmd.MarkFlagRequired("session")
}
