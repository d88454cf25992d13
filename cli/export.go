package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-geetools/geometry"
	"github.com/sfomuseum/go-geetools/operations/export"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
)

var (
	exportRegionReader string
	exportRegion       string
	exportScale        float64
	exportMaxImages    int
	exportWorkers      int
	exportRetries      uint64
	exportForce        bool
	exportManifest     string
	exportManifestKey  string

	exportCreate bool

	exportFolder      string
	exportNamePattern string
	exportDatePattern string
	exportDataType    string
	exportACL         string
)

var exportAssetCmd = &cobra.Command{
	Use:   "export-asset <collection-id> <destination-id>",
	Short: "Export every image in an image collection to another image collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		c, err := openDataCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		region, err := readRegion(ctx)

		if err != nil {
			return err
		}

		opts := &export.ToAssetOptions{
			Catalog:      c,
			CollectionID: args[0],
			AssetPath:    args[1],
			Create:       exportCreate,
			Force:        exportForce,
			Region:       region,
			Scale:        exportScale,
			MaxImages:    exportMaxImages,
			Workers:      exportWorkers,
			MaxRetries:   exportRetries,
		}

		tasks, err := export.ToAsset(ctx, opts)

		return reportTasks(ctx, cmd.OutOrStdout(), tasks, err)
	},
}

var exportBucketCmd = &cobra.Command{
	Use:   "export-bucket <collection-id> <bucket-uri>",
	Short: "Export every image in an image collection to a bucket",
	Long: `Export every image in an image collection to a gocloud.dev/blob bucket. Exported
files are named using a pattern whose {keys} are replaced by image properties. The {id}
key is the image's name and the {system_date} key is its start time formatted using a
Joda-style date pattern.

Examples:
  geetools export-bucket --catalog mem:// --folder landsat --name '{id}_{system_date}' users/example/landsat s3://bucket?region=us-east-1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx := cmd.Context()

		c, err := openDataCatalog(ctx)

		if err != nil {
			return err
		}

		defer c.Close()

		bucket, err := blob.OpenBucket(ctx, args[1])

		if err != nil {
			return fmt.Errorf("Failed to open bucket, %w", err)
		}

		defer bucket.Close()

		region, err := readRegion(ctx)

		if err != nil {
			return err
		}

		opts := &export.ToBucketOptions{
			Catalog:      c,
			CollectionID: args[0],
			Bucket:       bucket,
			Folder:       exportFolder,
			NamePattern:  exportNamePattern,
			DatePattern:  exportDatePattern,
			DataType:     exportDataType,
			ACL:          exportACL,
			Force:        exportForce,
			Region:       region,
			Scale:        exportScale,
			MaxImages:    exportMaxImages,
			Workers:      exportWorkers,
			MaxRetries:   exportRetries,
		}

		tasks, err := export.ToBucket(ctx, opts)

		return reportTasks(ctx, cmd.OutOrStdout(), tasks, err)
	},
}

func readRegion(ctx context.Context) (orb.Polygon, error) {

	if exportRegion == "" {
		return nil, nil
	}

	region, err := geometry.ReadRegion(ctx, exportRegionReader, exportRegion)

	if err != nil {
		return nil, fmt.Errorf("Failed to read region, %w", err)
	}

	return region, nil
}

func reportTasks(ctx context.Context, wr io.Writer, tasks []*export.Task, task_err error) error {

	for _, t := range tasks {

		if t == nil {
			continue
		}

		fmt.Fprintf(wr, "%s\t%s\t%s\t%s\n", t.ID, t.State, t.Source, t.Destination)
	}

	if exportManifest != "" && len(tasks) > 0 {

		err := export.WriteManifest(ctx, exportManifest, exportManifestKey, tasks)

		if err != nil {
			return err
		}
	}

	return task_err
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&exportRegionReader, "region-reader", "fs:///", "A valid whosonfirst/go-reader URI used to read the --region document.")
	cmd.Flags().StringVar(&exportRegion, "region", "", "The path to a GeoJSON document whose bounds are the area to export. If empty the footprint of the first image is used.")
	cmd.Flags().Float64Var(&exportScale, "scale", export.DefaultScale, "The scale, in metres per pixel, to export at.")
	cmd.Flags().IntVar(&exportMaxImages, "max-images", 0, "The maximum number of images to export. If zero every image is exported.")
	cmd.Flags().IntVar(&exportWorkers, "workers", 4, "The maximum number of images to export at once.")
	cmd.Flags().Uint64Var(&exportRetries, "retries", 3, "The maximum number of times to retry writing a single file.")
	cmd.Flags().BoolVar(&exportForce, "force", false, "Replace existing exports.")
	cmd.Flags().StringVar(&exportManifest, "manifest", "", "An optional whosonfirst/go-writer URI to write a GeoJSON manifest of export tasks to.")
	cmd.Flags().StringVar(&exportManifestKey, "manifest-key", "manifest.geojson", "The key, relative to --manifest, of the manifest.")
}

func init() {

	addExportFlags(exportAssetCmd)
	exportAssetCmd.Flags().BoolVar(&exportCreate, "create", true, "Create the destination collection, and any missing parent folders, if it doesn't exist.")

	addExportFlags(exportBucketCmd)
	exportBucketCmd.Flags().StringVar(&exportFolder, "folder", "", "The folder, in the bucket, to export images to.")
	exportBucketCmd.Flags().StringVar(&exportNamePattern, "name", "{id}", "The pattern used to name exported images.")
	exportBucketCmd.Flags().StringVar(&exportDatePattern, "date-pattern", "yyyyMMdd", "The Joda-style pattern used to format the {system_date} key.")
	exportBucketCmd.Flags().StringVar(&exportDataType, "data-type", export.DefaultDataType, "The data type of exported images.")
	exportBucketCmd.Flags().StringVar(&exportACL, "acl", "", "An optional canned ACL applied to files written to S3 buckets.")

	rootCmd.AddCommand(exportAssetCmd)
	rootCmd.AddCommand(exportBucketCmd)
}
