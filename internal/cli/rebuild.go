package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizboard-service/internal/config"
)

// NewRebuildCmd recomputes leaderboard entries from the stored attempts.
func NewRebuildCmd(configPath *string) *cobra.Command {
	var quizID int64
	cmd := &cobra.Command{
		Use:   "rebuild-leaderboard",
		Short: "Recompute leaderboards from completed attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			ids := []int64{quizID}
			if quizID == 0 {
				quizzes, err := b.catalog.ListQuizzes(ctx, false)
				if err != nil {
					return err
				}
				ids = ids[:0]
				for _, q := range quizzes {
					ids = append(ids, q.ID)
				}
			}

			_, _, leaderboard, _ := b.services(cfg)
			for _, id := range ids {
				if _, err := leaderboard.Rebuild(ctx, id); err != nil {
					return fmt.Errorf("rebuild quiz %d: %w", id, err)
				}
			}
			log.Printf("rebuilt %d leaderboards", len(ids))
			return nil
		},
	}
	cmd.Flags().Int64Var(&quizID, "quiz", 0, "quiz id to rebuild (default: all quizzes)")
	return cmd
}
