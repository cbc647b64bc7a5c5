package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch metadata for anime that have none yet",
	Long:  `Run an enrichment sweep against the Jikan API. Only anime that have never been fetched are requested; the sweep can be interrupted and resumed at any time.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, eng, err := setupStack()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		result, err := eng.Sweep(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Enriched %d of %d anime, %d failed\n", result.Updated, result.Total, result.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
