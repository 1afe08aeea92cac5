package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/fieldboot/internal/logger"
	"github.com/oshokin/fieldboot/internal/service/syncer"
)

// errNotADirectory is returned when the bundle root is a file.
var errNotADirectory = errors.New("bundle root is not a directory")

// Options contains inputs for the bundle entry point.
type Options struct {
	// Dir is the directory to publish.
	Dir string
	// Version names the bundle; derived from the content when empty.
	Version string
}

// Run writes the bundle description for opts.Dir.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fieldboot-bundle")

	info, err := os.Stat(opts.Dir)
	if err != nil {
		return fmt.Errorf("stat bundle root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", opts.Dir, errNotADirectory)
	}

	logger.InfoKV(ctx, "Preparing bundle description", "dir", opts.Dir)

	desc, err := syncer.Describe(opts.Dir, strings.TrimSpace(opts.Version))
	if err != nil {
		return err
	}

	path, err := desc.Save(opts.Dir)
	if err != nil {
		return fmt.Errorf("save bundle description: %w", err)
	}

	logger.InfoKV(ctx, "Bundle description saved",
		"path", path, "version", desc.Version, "files", len(desc.Files))
	printNextSteps(ctx, opts.Dir, desc)

	return nil
}

// printNextSteps logs human-readable guidance for publishing the bundle.
func printNextSteps(ctx context.Context, dir string, desc *syncer.Description) {
	var builder strings.Builder

	builder.WriteString("You should upload the contents of ")
	builder.WriteString(dir)
	builder.WriteString(" to the folder set as sync.manifest_url:\n")
	builder.WriteString(syncer.BundleFilename)

	for _, name := range desc.Names() {
		builder.WriteString(",\n")
		builder.WriteString(name)
	}

	builder.WriteString("\n\nMachines pick up version ")
	builder.WriteString(desc.Version)
	builder.WriteString(" on their next boot.")

	logger.Info(ctx, builder.String())
}
