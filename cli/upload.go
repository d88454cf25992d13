package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sfomuseum/go-geetools/lookup"
	"github.com/sfomuseum/go-geetools/operations/gather"
	"github.com/sfomuseum/go-geetools/operations/upload"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
)

var (
	uploadCreate    bool
	uploadForce     bool
	uploadWorkers   int
	uploadSkipDupes bool
	uploadLookups   []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <bucket-uri> <collection-id>",
	Short: "Upload every image in a bucket to an image collection",
	Long: `Crawl a gocloud.dev/blob bucket for images and create one image asset, with its
data, for each of them in an image collection. Capture times are read from EXIF data
when present.

Examples:
  geetools upload --catalog file:///usr/local/catalog --create file:///usr/local/photos users/example/photos`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		bucket, err := blob.OpenBucket(ctx, args[0])

		if err != nil {
			return fmt.Errorf("Failed to open bucket, %w", err)
		}

		defer bucket.Close()

		c, err := openDataCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		opts := &upload.UploadImagesOptions{
			Create:         uploadCreate,
			Force:          uploadForce,
			Workers:        uploadWorkers,
			SkipDuplicates: uploadSkipDupes,
		}

		for _, uri := range uploadLookups {

			l, err := lookup.NewBlobLookerUpper(ctx, uri)

			if err != nil {
				return fmt.Errorf("Failed to create lookup for %s, %w", uri, err)
			}

			opts.LookerUppers = append(opts.LookerUppers, l)
		}

		uploaded, err := upload.UploadImages(ctx, bucket, c, args[1], opts)

		for _, a := range uploaded {
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
		}

		return err
	},
}

var gatherCmd = &cobra.Command{
	Use:   "gather <bucket-uri> [bucket-uri...]",
	Short: "Print details, as JSON, about every image in one or more buckets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()
		enc := json.NewEncoder(cmd.OutOrStdout())

		cb := func(ctx context.Context, rsp *gather.GatherImagesResponse) error {
			return enc.Encode(rsp)
		}

		for _, uri := range args {

			bucket, err := blob.OpenBucket(ctx, uri)

			if err != nil {
				return fmt.Errorf("Failed to open bucket %s, %w", uri, err)
			}

			err = gather.CrawlImages(ctx, bucket, cb)
			bucket.Close()

			if err != nil {
				return fmt.Errorf("Failed to gather images from %s, %w", uri, err)
			}
		}

		return nil
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadCreate, "create", false, "Create the image collection, and any missing parent folders, if it doesn't exist.")
	uploadCmd.Flags().BoolVar(&uploadForce, "force", false, "Replace images that already exist in the collection.")
	uploadCmd.Flags().IntVar(&uploadWorkers, "workers", 4, "The maximum number of images to upload at once.")
	uploadCmd.Flags().BoolVar(&uploadSkipDupes, "skip-duplicates", false, "Skip images whose fingerprint matches an existing image.")
	uploadCmd.Flags().StringSliceVar(&uploadLookups, "lookup", nil, "Zero or more gocloud.dev/blob bucket URIs containing GeoJSON asset features to check for duplicates.")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(gatherCmd)
}
