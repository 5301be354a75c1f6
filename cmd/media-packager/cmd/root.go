package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/media-release/internal/config"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/service/packager"
	"github.com/oshokin/media-release/internal/version"
)

var (
	// configPath to an optional YAML, TOML or HCL settings file.
	configPath string
	// logLevel is the minimum level of emitted log entries.
	logLevel string
	// overrides holds the packaging flags applied on top of the settings file.
	overrides *config.Flags

	// rootCmd represents the base command for staging build outputs.
	rootCmd = &cobra.Command{
		Use:   "media-packager [source-root] [package-root]",
		Short: "Stage headers, libraries and binaries into a package layout",
		Long: `Copies the public headers, the vendored runtime and the build outputs of one
architecture and build configuration into include/, lib/ and bin/ under the
package root, and writes package-info.yaml with the link metadata.

Roots given as arguments override the settings file.`,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(2),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Setup(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := overrides.Resolve(configPath)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				cfg.SourceRoot = args[0]
			}

			if len(args) > 1 {
				cfg.PackageRoot = args[1]
			}

			_, err = packager.Run(ctx, &packager.Options{
				SourceRoot:   cfg.SourceRoot,
				PackageRoot:  cfg.PackageRoot,
				Architecture: cfg.Architecture,
				BuildType:    cfg.BuildType,
			})

			return err
		},
	}
)

// Execute runs the media-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(context.Background(), "media-packager failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings file (.yaml, .toml or .hcl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	overrides = config.NewFlags(rootCmd.Flags()).BindPackaging()
}
