package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/replibyte/releaser/internal/config"
	"github.com/replibyte/releaser/internal/event"
	"github.com/replibyte/releaser/internal/service/orchestrator"
	"github.com/replibyte/releaser/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// eventName is the trigger event kind reported by the hosting service.
	eventName string
	// force submits the formula bump even with an open request for the tag.
	force bool

	// rootCmd represents the base command for running a full release.
	rootCmd = &cobra.Command{
		Use:   "release-runner [event-payload]",
		Short: "Build, package and publish a tagged release for every platform",
		Long: `Runs the whole release pipeline for one published release event.

The event payload is the JSON document describing the trigger; the run is
accepted only for release events in the published or created state. The
three platform branches (linux-musl, windows-gnu, darwin) build in
parallel and fail independently. Once the darwin branch has published its
artifact, a version bump is proposed against the configured formula tap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &orchestrator.Options{
				ConfigPath: configPath,
				EventName:  eventName,
				EventPath:  args[0],
				Force:      force,
			}

			return orchestrator.Run(ctx, options)
		},
	}
)

// Execute runs the release-runner CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&eventName, "event-name", "e", event.EventName, "trigger event kind")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "bump the formula even if an equivalent request is open")
}
