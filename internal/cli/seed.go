package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizboard-service/internal/app"
	"quizboard-service/internal/config"
)

// NewSeedCmd loads the sample quizzes into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the sample quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			catalog, _, _, _ := b.services(cfg)
			created, err := app.Seed(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			log.Printf("seeded %d quizzes", created)
			return nil
		},
	}
}
