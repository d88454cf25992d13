package cli

import (
	"context"
	"fmt"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/operations/remove"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <asset-id> [asset-id...]",
	Short: "Recursively delete one or more assets",
	Long: `Delete one or more assets. Images and tables are deleted directly. Folders and
image collections are deleted after all of their children have been deleted.

Deletes are applied immediately and are not rolled back if a later delete fails.

Examples:
  # Delete an image collection and every image in it
  geetools delete --catalog file:///usr/local/catalog users/example/landsat`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		c, err := openCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		r, err := remove.NewRemoval(c)

		if err != nil {
			return err
		}

		r.Callback = func(ctx context.Context, a *asset.Asset) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		}

		return r.Remove(ctx, args...)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
