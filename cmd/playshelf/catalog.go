package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/varoOP/playshelf/internal/app"
	"github.com/varoOP/playshelf/internal/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and edit the catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every group and its items",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			groups, err := a.Groups(cmd.Context())
			if err != nil {
				return err
			}

			var rows [][]string
			for _, g := range groups {
				for _, it := range g.Items {
					rows = append(rows, []string{g.Name, it.ID, it.Title, string(it.Origin), formatTime(it.LastPlayed)})
				}
			}
			if len(rows) == 0 {
				fmt.Println("Catalog is empty")
				return nil
			}
			fmt.Println(renderTable([]string{"Group", "ID", "Title", "Origin", "Last Played"}, rows, nil))

			counts, err := a.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d items in %d groups (%d memberships)\n", counts.Items, counts.Groups, counts.Memberships)
			return nil
		})
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search item titles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(a *app.App) error {
			matches, err := a.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("No matches")
				return nil
			}
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}

			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, []string{strconv.Itoa(m.Score), m.Item.ID, m.Item.Title, string(m.Item.Origin)})
			}
			fmt.Println(renderTable([]string{"Score", "ID", "Title", "Origin"}, rows, []columnAlignment{alignRight}))
			return nil
		})
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <title> <target>",
	Short: "Add an item by hand",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		item := domain.Item{Title: args[0], Target: args[1]}
		item.Args, _ = cmd.Flags().GetString("args")
		item.Cover, _ = cmd.Flags().GetString("cover")
		item.Banner, _ = cmd.Flags().GetString("banner")
		item.Logo, _ = cmd.Flags().GetString("logo")
		item.Hero, _ = cmd.Flags().GetString("hero")

		return withApp(cmd, func(a *app.App) error {
			added, err := a.AddManualItem(cmd.Context(), group, item)
			if err != nil {
				return err
			}
			fmt.Println(added.ID)
			return nil
		})
	},
}

var catalogPlayedCmd = &cobra.Command{
	Use:   "played <id>",
	Short: "Record that an item was just played",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var at time.Time
		if s, _ := cmd.Flags().GetString("at"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
			at = t
		}
		return withApp(cmd, func(a *app.App) error {
			return a.MarkPlayed(cmd.Context(), args[0], at)
		})
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete items and their assets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			for _, id := range args {
				if err := a.DeleteItem(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", id)
			}
			return nil
		})
	},
}

var catalogWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every item and group",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to wipe the catalog without --yes")
		}
		return withApp(cmd, func(a *app.App) error {
			return a.Wipe(cmd.Context())
		})
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the catalog to a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d groups to %s\n", n, args[0])
			return nil
		})
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the catalog with the contents of a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d groups from %s\n", n, args[0])
			return nil
		})
	},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	catalogSearchCmd.Flags().Int("limit", 20, "maximum number of results")

	catalogAddCmd.Flags().String("group", "", "group to add the item to (default \"manual\")")
	catalogAddCmd.Flags().String("args", "", "launch arguments")
	catalogAddCmd.Flags().String("cover", "", "cover image path")
	catalogAddCmd.Flags().String("banner", "", "banner image path")
	catalogAddCmd.Flags().String("logo", "", "logo image path")
	catalogAddCmd.Flags().String("hero", "", "hero image path")

	catalogPlayedCmd.Flags().String("at", "", "time played as RFC 3339 (default now)")
	catalogWipeCmd.Flags().Bool("yes", false, "confirm wiping the catalog")

	catalogCmd.AddCommand(
		catalogListCmd,
		catalogSearchCmd,
		catalogAddCmd,
		catalogPlayedCmd,
		catalogDeleteCmd,
		catalogWipeCmd,
		catalogExportCmd,
		catalogImportCmd,
	)
	rootCmd.AddCommand(catalogCmd)
}
