package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/playshelf/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-legacy [file]",
	Short: "Import a legacy catalog.json into the database",
	Long: `Migrate reads a catalog file written by older versions (a plain item array
or an object with a "groups" list) and replaces the database catalog with it.
The file is renamed to .migrated on success and to .broken when it cannot be
parsed.

The default file in the data directory is migrated automatically on startup;
pass a path to import a file from elsewhere.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		return withApp(cmd, func(a *app.App) error {
			migrated, err := a.MigrateLegacy(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if !migrated {
				fmt.Println("No legacy catalog found")
				return nil
			}

			counts, err := a.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Legacy catalog migrated!\n")
			fmt.Printf("  Items: %d\n", counts.Items)
			fmt.Printf("  Groups: %d\n\n", counts.Groups)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
