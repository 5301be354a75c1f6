package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/media-release/internal/config"
	"github.com/oshokin/media-release/internal/logger"
	"github.com/oshokin/media-release/internal/service/packager"
	"github.com/oshokin/media-release/internal/service/signer"
	"github.com/oshokin/media-release/internal/version"
)

var (
	// configPath to an optional YAML, TOML or HCL settings file.
	configPath string
	// logLevel is the minimum level of emitted log entries.
	logLevel string
	// overrides holds the signing flags applied on top of the settings file.
	overrides *config.Flags

	// rootCmd represents the base command for signing a staged package.
	rootCmd = &cobra.Command{
		Use:   "media-signer [package-root]",
		Short: "Sign the executables and libraries of a staged package",
		Long: `Signs every .exe and then every .dll directly under <package-root>/bin,
skipping excluded names. Each file gets a bounded number of attempts.

With the default best-effort policy files that exhaust their attempts are
reported and left unsigned without failing the command.`,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
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
				cfg.PackageRoot = args[0]
			}

			report, err := signer.Run(ctx, &signer.Options{
				PackageRoot: cfg.PackageRoot,
				Signing:     &cfg.Signing,
			})

			// Packages staged by media-packager publish checksums that signing just changed.
			if signed := report.Signed(); len(signed) > 0 {
				_, refreshErr := packager.RefreshLinkInfo(cfg.PackageRoot, signed)
				if refreshErr != nil && !errors.Is(refreshErr, packager.ErrNoLinkInfo) {
					return errors.Join(err, refreshErr)
				}
			}

			return err
		},
	}
)

// Execute runs the media-signer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(context.Background(), "media-signer failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings file (.yaml, .toml or .hcl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	overrides = config.NewFlags(rootCmd.Flags()).BindSigning()
}
