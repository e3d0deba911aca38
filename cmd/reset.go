package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/psychometric/internal/persist"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored profile, answers and report of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("session")
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

		if err := persist.New(kv, id).Clear(ctx); err != nil {
			return fmt.Errorf("clear session %s: %w", id, err)
		}
		fmt.Printf("Session %s cleared.\n", id)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("session", "", "Session ID (required)")
	_ = resetCmd.MarkFlagRequired("session")
}
