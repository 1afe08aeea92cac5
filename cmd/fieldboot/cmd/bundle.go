package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fieldboot/internal/service/bundle"
)

// newBundleCommand creates the `bundle` subcommand.
func newBundleCommand() *cobra.Command {
	options := new(bundle.Options)

	command := &cobra.Command{
		Use:   "bundle <dir>",
		Short: "Write the bundle description for a directory",
		Long: "Hash every file under the directory and write fieldboot-bundle.yaml next to them. " +
			"Publish the directory over HTTP and point sync.manifest_url at it.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.Dir = args[0]

			return bundle.Run(ctx, options)
		},
	}

	command.Flags().StringVarP(&options.Version, "tag", "t", "", "bundle version (default: derived from the content)")

	return command
}
