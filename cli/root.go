// Package cli implements the geetools command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	catalogURI string
	verbose    bool
	rate       int
)

var rootCmd = &cobra.Command{
	Use:   "geetools",
	Short: "Tools for managing assets in a remote catalog",
	Long: `geetools creates, uploads, exports, inspects and recursively deletes the
assets (folders, image collections, images and tables) stored in a remote catalog.

The catalog is selected by URI, for example:
  - mem://                        an in-memory catalog (useful for testing)
  - file:///usr/local/catalog     a catalog stored on the local filesystem
  - s3://bucket?region=us-east-1  a catalog stored in an S3 bucket

The catalog URI may also be set with the GEETOOLS_CATALOG environment variable.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {

	rootCmd.PersistentFlags().StringVar(&catalogURI, "catalog", os.Getenv("GEETOOLS_CATALOG"), "A registered catalog URI or a valid gocloud.dev/blob bucket URI.")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose (debug) logging.")
	rootCmd.PersistentFlags().IntVar(&rate, "rate", 0, "The maximum number of catalog requests per second. If zero requests are not rate limited.")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {

		level := slog.LevelInfo

		if verbose {
			level = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		return nil
	}
}

// openCatalog returns the catalog named by the --catalog flag, rate limited if --rate is set.
func openCatalog(ctx context.Context) (catalog.Catalog, error) {

	if catalogURI == "" {
		return nil, errors.New("Missing --catalog URI")
	}

	c, err := catalog.NewCatalog(ctx, catalogURI)

	if err != nil {
		return nil, fmt.Errorf("Failed to create catalog, %w", err)
	}

	if rate > 0 {
		return catalog.NewRateLimitedCatalog(c, rate), nil
	}

	return c, nil
}

// openDataCatalog returns the catalog named by the --catalog flag, which must also store asset payloads,
// rate limited if --rate is set.
func openDataCatalog(ctx context.Context) (catalog.DataCatalog, error) {

	if catalogURI == "" {
		return nil, errors.New("Missing --catalog URI")
	}

	c, err := catalog.NewCatalog(ctx, catalogURI)

	if err != nil {
		return nil, fmt.Errorf("Failed to create catalog, %w", err)
	}

	dc, ok := c.(catalog.DataCatalog)

	if !ok {
		c.Close()
		return nil, fmt.Errorf("Catalog %s does not store asset data", catalogURI)
	}

	if rate > 0 {
		return catalog.NewRateLimitedDataCatalog(dc, rate), nil
	}

	return dc, nil
}
