package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <export.xml>",
	Short: "Import a MyAnimeList XML export",
	Long:  `Parse a MyAnimeList export file and reconcile every entry into the local database. Entries already present are updated, new ones are created.`,
	Example: `anitrack import animelist.xml
anitrack import -c config.yml animelist.xml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, eng, err := setupStack()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open export file: %w", err)
		}
		defer file.Close() //nolint:errcheck

		result, err := eng.ImportXML(cmd.Context(), file)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d entries: %d created, %d updated, %d failed\n",
			result.Total, result.Created, result.Updated, result.Failed)
		for _, msg := range result.Errors {
			fmt.Printf("  failed: %s\n", msg)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
