package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fieldboot/internal/config"
	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
	"github.com/oshokin/fieldboot/internal/service/boot"
	"github.com/oshokin/fieldboot/internal/version"
)

// exitUsage is returned for command line and bundle errors.
const exitUsage = 1

var (
	// configPath to the plan YAML file.
	configPath string

	// exitCode is the status the process ends with.
	exitCode = domain.ExitOK

	// rootCmd represents the base command that runs the boot sequence.
	rootCmd = &cobra.Command{
		Use:   "fieldboot",
		Short: "Start services, update the bundle and launch the field application",
		Long: "Start the services the field application depends on, wait for them to become ready, " +
			"update the application bundle, then launch the application or its fallback. " +
			"The exit code tells which stage failed: 2 invalid plan, 3 required service did not start, " +
			"4 required service not ready, 5 application and fallback failed, 130 interrupted.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			code, err := boot.Run(ctx, &boot.Options{ConfigPath: configPath})
			exitCode = code

			return err
		},
	}
)

// Execute runs the fieldboot CLI and exits with the boot's exit code.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newBundleCommand())

	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), err)

		if exitCode == domain.ExitOK {
			exitCode = exitUsage
		}
	}

	logger.Sync()
	os.Exit(exitCode.Int())
}

// defaultConfigPath honours the environment override.
func defaultConfigPath() string {
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return path
	}

	return config.DefaultConfigFilename
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(),
		"path to the plan file (env "+config.EnvConfigPath+")")
}
