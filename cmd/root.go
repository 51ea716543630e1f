package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JAEarly/GardenEye/cmd/ingest"
	"github.com/JAEarly/GardenEye/cmd/serve"
	"github.com/JAEarly/GardenEye/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gardeneye",
		Short: "GardenEye wildlife video catalog",
		Long:  "Discover camera footage, annotate it with an object detector, and serve the catalog over HTTP.",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		ingest.Command(settings),
		serve.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return conf.Validate(settings)
	}

	return rootCmd
}

// setupFlags configures global flags shared by all subcommands. Flag
// defaults come from the loaded settings, so the command line takes
// precedence over the config file and environment.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Media.Root, "media", settings.Media.Root, "Root directory containing the source videos")
	cmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "database", settings.Output.SQLite.Path, "Path of the SQLite database file")
}
