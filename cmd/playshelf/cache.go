package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/varoOP/playshelf/internal/app"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the resized artwork cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			s, err := a.CacheStats()
			if err != nil {
				return err
			}

			limit := "unbounded"
			if s.MaxBytes > 0 {
				limit = humanize.IBytes(uint64(s.MaxBytes))
			}
			fmt.Printf("Directory: %s\n", s.Dir)
			fmt.Printf("Entries:   %d\n", s.Entries)
			fmt.Printf("Size:      %s of %s\n", humanize.IBytes(uint64(s.TotalBytes)), limit)
			if s.Entries > 0 {
				fmt.Printf("Oldest:    %s\n", humanize.Time(s.Oldest))
				fmt.Printf("Newest:    %s\n", humanize.Time(s.Newest))
			}
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove least recently used entries until the size limit is met",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.PruneCache(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries\n", n)
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.ClearCache()
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries\n", n)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
