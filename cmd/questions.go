package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/llm"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/questiongen"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect and extend the question bank",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in and bank questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		catFlag, _ := cmd.Flags().GetString("category")
		ctx := cmd.Context()

		var filter assessment.Category
		if catFlag != "" {
			c, err := assessment.ParseCategory(catFlag)
			if err != nil {
				return err
			}
			filter = c
		}

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

		pool, err := persist.NewBank(kv).Pool(ctx)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		fmt.Printf("%-44s  %-13s  %s\n", "ID", "Category", "Question")
		fmt.Println(strings.Repeat("─", 100))
		for _, q := range pool {
			if filter != "" && q.Category != filter {
				continue
			}
			fmt.Printf("%-44s  %-13s  %s\n", q.ID, q.Category, truncate(q.Text, 60))
		}
		return nil
	},
}

var questionsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Preview AI-generated questions, optionally adding them to the bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		catFlag, _ := cmd.Flags().GetString("category")
		count, _ := cmd.Flags().GetInt("count")
		save, _ := cmd.Flags().GetBool("save")
		ctx := cmd.Context()

		category, err := assessment.ParseCategory(catFlag)
		if err != nil {
			return err
		}

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

		lcfg, err := llmConfig()
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}
		provider, err := llm.NewProvider(ctx, lcfg, s.EventRepo(), nil)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		bank := persist.NewBank(kv)
		pool, err := bank.Pool(ctx)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		prior := make([]string, len(pool))
		for i, q := range pool {
			prior[i] = q.Text
		}

		fmt.Printf("Generating %d %s questions...\n\n", count, category.Label())
		gen := questiongen.New(provider, questiongen.DefaultConfig())
		qs, err := gen.Generate(ctx, questiongen.GenerateInput{
			Category:       category,
			Count:          count,
			PriorQuestions: prior,
		})
		if err != nil {
			return err
		}

		for i, q := range qs {
			fmt.Printf("%d. %s\n", i+1, q.Text)
			for _, l := range q.Options.Labels() {
				text, _ := q.Options.Get(l)
				fmt.Printf("   %s) %s\n", l, text)
			}
			if save {
				// Bank questions get their own IDs.
				q.ID = ""
				added, err := bank.Add(ctx, q)
				if err != nil {
					return fmt.Errorf("save question %d: %w", i+1, err)
				}
				fmt.Printf("   saved as %s\n", added.ID)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	questionsListCmd.Flags().String("category", "", "Only show this category")

	questionsGenerateCmd.Flags().String("category", "", "Category: Behavioral, Preferences, DailyRoutine, Profession or Interactions (required)")
	questionsGenerateCmd.Flags().Int("count", 3, "Number of questions to generate")
	questionsGenerateCmd.Flags().Bool("save", false, "Add the generated questions to the bank")
	_ = questionsGenerateCmd.MarkFlagRequired("category")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsGenerateCmd)
}
