package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyq-platform/studyq/internal/config"
	"github.com/studyq-platform/studyq/internal/llm"
	"github.com/studyq-platform/studyq/internal/query"
)

// NewInterpretCmd creates the 'interpret' command, which prints how a raw
// query resolves. No tokens are charged and nothing is searched.
func NewInterpretCmd() *cobra.Command {
	var (
		noLLM    bool
		examType string
		board    string
		subjects []string
	)

	cmd := &cobra.Command{
		Use:   "interpret <query>",
		Short: "Show the structured query a request resolves to",
		Example: `  studyqctl interpret "GCSE Edexcel maths notes on quadratic equations"
  studyqctl interpret --no-llm --subject Biology "flashcards about cells"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fallback query.Completer
			if !noLLM {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				fallback = query.NewFallbackClient(llm.NewClient(cfg.LLM), cfg.LLM.Timeout)
			}

			prefs := query.Preferences{ExamType: examType, ExamBoard: board, Subjects: subjects}
			result := query.NewInterpreter(fallback).Interpret(cmd.Context(), strings.Join(args, " "), prefs)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip the language-model fallback")
	cmd.Flags().StringVar(&examType, "exam-type", "", "Preferred exam type")
	cmd.Flags().StringVar(&board, "board", "", "Preferred exam board")
	cmd.Flags().StringSliceVar(&subjects, "subject", nil, "Preferred subjects, in order")

	return cmd
}
