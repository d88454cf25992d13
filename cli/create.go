package cli

import (
	"fmt"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/operations/create"
	"github.com/spf13/cobra"
)

var (
	createType    string
	createParents bool
)

var createCmd = &cobra.Command{
	Use:   "create <asset-id> [asset-id...]",
	Short: "Create one or more folders or image collections",
	Long: `Create one or more folders or image collections. Assets that already exist with
the same type are left alone.

Examples:
  # Create an image collection and any missing parent folders
  geetools create --catalog mem:// --type ImageCollection --parents users/example/a/b/landsat`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		c, err := openCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		opts := &create.CreateAssetsOptions{
			Type:        asset.Type(createType),
			MakeParents: createParents,
		}

		assets, err := create.CreateAssets(ctx, c, opts, args...)

		if err != nil {
			return err
		}

		for _, a := range assets {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ID, a.Type)
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", string(asset.Folder), "The type of asset to create. Valid options are: Folder, ImageCollection.")
	createCmd.Flags().BoolVarP(&createParents, "parents", "p", false, "Create any missing parent folders.")
	rootCmd.AddCommand(createCmd)
}
