package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyq-platform/studyq/internal/config"
	"github.com/studyq-platform/studyq/internal/database"
	"github.com/studyq-platform/studyq/internal/tokens"
)

// NewSweepCmd creates the 'sweep' command, the entry point for the external
// weekly refill scheduler.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Refill every account whose weekly refill is due",
		Example: `  studyqctl sweep
  DB_HOST=db.internal studyqctl sweep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pool, err := database.NewPostgresPool(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := tokens.NewPostgresStore(pool)
			n, err := tokens.NewSweeper(tokens.NewLedger(store), store, 0).RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep stopped after %d refills: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refilled %d accounts\n", n)
			return nil
		},
	}
}
