package cmd

import (
	"fmt"

	"github.com/jon4hz/anitrack/tags"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show list statistics",
	Long:  `Display statistics about the anime list: totals, episodes watched, mean score and the status distribution.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, _, err := setupStack()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Println("List Statistics:")
		fmt.Printf("Total Anime: %d\n", stats.TotalAnime)
		fmt.Printf("With Metadata: %d\n", stats.TotalFetched)
		fmt.Printf("Episodes Watched: %d\n", stats.EpisodesWatched)
		if stats.MeanScore > 0 {
			fmt.Printf("Mean Score: %.2f\n", stats.MeanScore)
		}

		if len(stats.ByStatus) > 0 {
			fmt.Println("\nBy Status:")
			for _, name := range tags.StatusNames() {
				if count, ok := stats.ByStatus[name]; ok {
					fmt.Printf("  %s: %d\n", name, count)
				}
			}
		}

		if len(stats.ScoreCounts) > 0 {
			fmt.Println("\nScore Distribution:")
			for score := 10; score >= 1; score-- {
				if count, ok := stats.ScoreCounts[score]; ok {
					fmt.Printf("  %2d: %d\n", score, count)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
