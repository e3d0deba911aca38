package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions with a stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		lister, ok := kv.(persist.Lister)
		if !ok {
			return fmt.Errorf("the %s backend cannot list sessions", cfg.Storage.Backend)
		}
		ids, err := persist.Sessions(ctx, lister)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Printf("%-36s  %-24s  %-8s  %s\n", "Session", "Name", "Answers", "Report")
		fmt.Println(strings.Repeat("─", 82))
		for _, id := range ids {
			a := persist.New(kv, id)
			profile, err := a.LoadProfile(ctx)
			if err != nil {
				return err
			}
			answers, err := a.LoadAnswers(ctx)
			if err != nil {
				return err
			}
			report, err := a.LoadReport(ctx)
			if err != nil {
				return err
			}
			name := ""
			if profile != nil {
				name = truncate(profile.Name, 24)
			}
			done := "-"
			if report != nil {
				done = truncate(report.PsychologicalArchetype, 24)
			}
			fmt.Printf("%-36s  %-24s  %-8d  %s\n", id, name, len(answers), done)
		}
		return nil
	},
}

var sessionsEventsCmd = &cobra.Command{
	Use:   "events <id>",
	Short: "Show the action history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QuerySessionEvents(cmd.Context(), args[0], store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		fmt.Printf("%-19s  %-16s  %-20s  %s\n", "Timestamp", "Action", "Question", "Detail")
		fmt.Println(strings.Repeat("─", 80))
		for _, e := range events {
			fmt.Printf("%-19s  %-16s  %-20s  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Action,
				truncate(e.QuestionID, 20),
				e.Detail,
			)
		}
		return nil
	},
}

func init() {
	sessionsEventsCmd.Flags().IntP("limit", "n", 0, "Number of events to show (0 = all)")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsEventsCmd)
}
