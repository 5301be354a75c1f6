package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/media-release/internal/config"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/service/release"
	"github.com/oshokin/media-release/internal/version"
)

var (
	// configPath to an optional YAML, TOML or HCL settings file.
	configPath string
	// logLevel is the minimum level of emitted log entries.
	logLevel string
	// skipSigning stops after staging.
	skipSigning bool
	// overrides holds the packaging and signing flags applied on top of the settings file.
	overrides *config.Flags

	// rootCmd represents the base command for the whole release pipeline.
	rootCmd = &cobra.Command{
		Use:   "media-release [source-root] [package-root]",
		Short: "Stage and sign a media player release",
		Long: `Locks the package root, stages the build outputs into include/, lib/ and bin/
and signs the staged executables and libraries.

Signing never starts when staging fails.`,
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

			_, err = release.Run(ctx, &release.Options{
				SourceRoot:   cfg.SourceRoot,
				PackageRoot:  cfg.PackageRoot,
				Architecture: cfg.Architecture,
				BuildType:    cfg.BuildType,
				Signing:      &cfg.Signing,
				SkipSigning:  skipSigning,
			})

			return err
		},
	}
)

// Execute runs the media-release CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(context.Background(), "media-release failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings file (.yaml, .toml or .hcl)")
	rootCmd.Flags().BoolVar(&skipSigning, "skip-signing", false, "stage the package without signing it")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	overrides = config.NewFlags(rootCmd.Flags()).BindPackaging().BindSigning()
}
