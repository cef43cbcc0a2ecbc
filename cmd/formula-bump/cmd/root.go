package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/replibyte/releaser/internal/config"
	"github.com/replibyte/releaser/internal/service/bumper"
	"github.com/replibyte/releaser/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// force submits the formula bump even with an open request for the tag.
	force bool

	// rootCmd represents the base command for bumping the formula tap.
	rootCmd = &cobra.Command{
		Use:   "formula-bump [tag] [revision]",
		Short: "Propose a formula version bump against the configured tap",
		Long: `Opens an update request pinning the formula to the given release.

Tag and revision are taken verbatim; nothing is rebuilt or republished.
Without --force, an already-open update request for the same version is
left alone and reported instead of duplicated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &bumper.RunOptions{
				ConfigPath: configPath,
				Tag:        args[0],
				Revision:   args[1],
				Force:      force,
			}

			return bumper.Run(ctx, options)
		},
	}
)

// Execute runs the formula-bump CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "bump the formula even if an equivalent request is open")
}
