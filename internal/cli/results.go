package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-arena/internal/config"
	pgarchive "trivia-arena/internal/infra/postgres"
)

// NewResultsCmd prints recently archived games.
func NewResultsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show recently archived game results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showResults(cmd.Context(), *configPath, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of games to show")
	return cmd
}

func showResults(ctx context.Context, configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	results, err := pgarchive.NewGameArchive(pool).RecentResults(ctx, limit)
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Printf("%s  room=%s  topic=%q  players=%d  winner=%s\n",
			result.FinishedAt.Format("2006-01-02 15:04:05"),
			result.RoomID, result.Topic, len(result.Standings), result.Winner)
		for i, standing := range result.Standings {
			fmt.Printf("    %d. %s  %d points\n", i+1, standing.Username, standing.Score)
		}
	}
	return nil
}
