package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/playshelf/internal/app"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "playshelf",
	Short: "A unified catalog of installed games and applications",
	Long: `Playshelf gathers Steam titles, installed applications and emulator ROMs
into one catalog and serves their artwork resized and cached.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the catalog, assets and caches")
	rootCmd.PersistentFlags().String("steam-path", "", "Steam installation directory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("steam_path", rootCmd.PersistentFlags().Lookup("steam-path"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PLAYSHELF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// withApp initializes the application, runs fn and closes it again.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	application, err := app.NewApp(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	runErr := fn(application)
	if err := application.Close(); err != nil && runErr == nil {
		return fmt.Errorf("failed to close application: %w", err)
	}
	return runErr
}
