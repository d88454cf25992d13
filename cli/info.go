package cli

import (
	"encoding/json"
	"fmt"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <asset-id> [asset-id...]",
	Short: "Print the description of one or more assets as GeoJSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		c, err := openCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		features := make([]*asset.Feature, len(args))

		for idx, id := range args {

			a, err := c.Info(ctx, id)

			if err != nil {
				return err
			}

			f, err := asset.NewFeature(a, nil)

			if err != nil {
				return fmt.Errorf("Failed to create feature for %s, %w", a.ID, err)
			}

			features[idx] = f
		}

		enc := json.NewEncoder(cmd.OutOrStdout())

		if len(features) == 1 {
			return enc.Encode(features[0])
		}

		return enc.Encode(asset.NewFeatureList(features...))
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls <asset-id>",
	Short: "List the children of a folder or image collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		c, err := openCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		children, err := c.List(ctx, args[0])

		if err != nil {
			return err
		}

		for _, a := range children {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ID, a.Type)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(lsCmd)
}
