package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/varoOP/playshelf/internal/app"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/emulator"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a source and merge its items into the catalog",
}

var scanSteamCmd = &cobra.Command{
	Use:   "steam",
	Short: "Scan the Steam library",
	Long: `Scan reads every Steam library folder, classifies the installed apps and
merges the games into the Steam group. Hidden titles, tools and adult content
are skipped unless the matching --include flag is given.

Missing artwork is downloaded in the background; use --wait to block until
the downloads are done.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := scanOptions(cmd)
		return withApp(cmd, func(a *app.App) error {
			res, err := a.ScanSteam(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printScan(res)
			waitPrefetch(cmd, a)
			return nil
		})
	},
}

var scanAppsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Scan applications registered with the operating system",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := scanOptions(cmd)
		return withApp(cmd, func(a *app.App) error {
			res, err := a.ScanApps(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printScan(res)
			return nil
		})
	},
}

var scanEmulatorCmd = &cobra.Command{
	Use:   "emulator <platform> <rom-dir>",
	Short: "Scan a ROM directory for one emulated platform",
	Long: `Scan lists the titles of one platform below rom-dir and merges them into
that platform's group. Run "playshelf scan platforms" for the known ids.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		emu, _ := cmd.Flags().GetString("emulator")
		req := emulator.Request{Platform: args[0], Root: args[1], Emulator: emu}

		return withApp(cmd, func(a *app.App) error {
			res, err := a.ScanEmulator(cmd.Context(), req)
			if err != nil {
				return err
			}
			printScan(res)
			return nil
		})
	},
}

var scanPlatformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the emulator platform ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			for _, id := range a.Platforms() {
				fmt.Println(id)
			}
			return nil
		})
	},
}

func scanOptions(cmd *cobra.Command) domain.ScanOptions {
	hidden, _ := cmd.Flags().GetBool("include-hidden")
	software, _ := cmd.Flags().GetBool("include-software")
	adult, _ := cmd.Flags().GetBool("include-adult")
	return domain.ScanOptions{IncludeHidden: hidden, IncludeSoftware: software, IncludeAdult: adult}
}

func waitPrefetch(cmd *cobra.Command, a *app.App) {
	if wait, _ := cmd.Flags().GetDuration("wait"); wait > 0 {
		a.WaitPrefetch(wait)
	}
}

func printScan(res *app.ScanResult) {
	s := res.Stats
	fmt.Printf("\n✓ %s scan complete\n", s.Origin)
	fmt.Printf("  Scanned: %d (%d added, %d updated, %d removed)\n", s.Scanned, s.Added, s.Updated, s.Removed)
	fmt.Printf("  With cover: %d (%.1f%%)\n", s.WithCover, s.CoverPercent)
	fmt.Printf("  Catalog size: %d\n", s.TotalItems)
	if s.DuplicateIDs > 0 {
		fmt.Printf("  Duplicate ids dropped: %d\n", s.DuplicateIDs)
	}
	if s.PrefetchQueue > 0 {
		fmt.Printf("  Artwork downloads queued: %d\n", s.PrefetchQueue)
	}
	fmt.Println()
}

func init() {
	scanSteamCmd.Flags().Bool("include-hidden", false, "include titles hidden in the Steam client")
	scanSteamCmd.Flags().Bool("include-software", false, "include tools and non-game software")
	scanSteamCmd.Flags().Bool("include-adult", false, "include adult-only titles")
	scanAppsCmd.Flags().Bool("include-software", false, "include runtimes, drivers and other utilities")
	scanSteamCmd.Flags().Duration("wait", 2*time.Minute, "how long to wait for artwork downloads (0 to skip)")
	scanEmulatorCmd.Flags().String("emulator", "", "emulator executable used as the launch target")

	scanCmd.AddCommand(scanSteamCmd, scanAppsCmd, scanEmulatorCmd, scanPlatformsCmd)
	rootCmd.AddCommand(scanCmd)
}
