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

	// rootCmd represents the base command for running a single build branch.
	rootCmd = &cobra.Command{
		Use:   "release-branch [target] [event-payload]",
		Short: "Build, package and publish one platform branch of a release",
		Long: `Runs exactly one platform branch of the release pipeline.

Target is one of linux-musl, windows-gnu or macos. The branch builds the
tagged source in its isolated toolchain, packages the binary into the
platform archive with its checksum sidecar, and attaches both to the
release. The formula bump is never triggered from here; use
release-runner or formula-bump for that.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &orchestrator.BranchOptions{
				ConfigPath: configPath,
				EventName:  eventName,
				EventPath:  args[1],
				TargetName: args[0],
			}

			return orchestrator.RunBranch(ctx, options)
		},
	}
)

// Execute runs the release-branch CLI and exits with non-zero status on error.
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
}
