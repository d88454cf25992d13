package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/common"
	"github.com/sfomuseum/go-geetools/geometry"
	"github.com/sfomuseum/go-geetools/operations/clone"
	"github.com/sfomuseum/go-geetools/operations/create"
	"github.com/sfomuseum/go-geetools/operations/remove"
	"github.com/tidwall/sjson"
)

// ToAssetOptions is a struct containing configuration details for the ToAsset method.
type ToAssetOptions struct {
	// The catalog containing both the source collection and the destination.
	Catalog catalog.DataCatalog
	// The ID of the ImageCollection to export.
	CollectionID string
	// The ID of the ImageCollection that images are exported in to.
	AssetPath string
	// Create AssetPath, and any missing parent folders, if it doesn't already exist.
	Create bool
	// Replace images that already exist in AssetPath. Otherwise they are skipped.
	Force bool
	// The area to export. If nil the bounds of the footprint of the first image in the collection are used.
	Region orb.Polygon
	// The scale, in metres per pixel, to export at. If zero DefaultScale is used.
	Scale float64
	// The maximum number of images to export. If zero every image is exported.
	MaxImages int
	// The maximum number of images to export at once. Defaults to 1.
	Workers int
	// The maximum number of times to retry copying a single file.
	MaxRetries uint64
	// An optional logger. If nil slog.Default() is used.
	Logger *slog.Logger
}

// ToAsset exports every image in the collection opts.CollectionID to the collection opts.AssetPath, returning
// one Task per image. Each image keeps its name in the destination collection.
func ToAsset(ctx context.Context, opts *ToAssetOptions) ([]*Task, error) {

	if opts.Catalog == nil {
		return nil, errors.New("Missing catalog")
	}

	c := opts.Catalog

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("collection", opts.CollectionID, "destination", opts.AssetPath)

	images, err := listImages(ctx, c, opts.CollectionID, opts.MaxImages)

	if err != nil {
		return nil, err
	}

	if opts.Create {

		create_opts := &create.CreateAssetsOptions{
			Type:        asset.ImageCollection,
			MakeParents: true,
			Logger:      logger,
		}

		_, err := create.CreateAssets(ctx, c, create_opts, opts.AssetPath)

		if err != nil {
			return nil, fmt.Errorf("Failed to create destination collection, %w", err)
		}

	} else {

		dest, err := c.Info(ctx, opts.AssetPath)

		if err != nil {
			return nil, fmt.Errorf("Failed to retrieve destination collection, %w", err)
		}

		if dest.Type != asset.ImageCollection {
			return nil, fmt.Errorf("Destination %s is a %s, not an %s", dest.ID, dest.Type, asset.ImageCollection)
		}
	}

	region := opts.Region

	if region == nil {

		region, err = defaultRegion(images)

		if err != nil {
			return nil, err
		}
	}

	scale := opts.Scale

	if scale <= 0 {
		scale = DefaultScale
	}

	tasks := make([]*Task, len(images))

	for idx, img := range images {

		name := img.Name()

		t, err := newTask(img, asset.Join(opts.AssetPath, name), name)

		if err != nil {
			return nil, err
		}

		t.Region = region
		t.Scale = scale
		tasks[idx] = t
	}

	run_func := func(ctx context.Context, img *asset.Asset, t *Task) error {
		return exportToAsset(ctx, c, img, t, opts, logger)
	}

	err = runTasks(ctx, images, tasks, opts.Workers, run_func)

	if err != nil {
		return tasks, err
	}

	return tasks, nil
}

func exportToAsset(ctx context.Context, c catalog.DataCatalog, img *asset.Asset, t *Task, opts *ToAssetOptions, logger *slog.Logger) error {

	logger = logger.With("task", t.ID, "source", img.ID, "asset", t.Destination)

	exists, err := catalog.Exists(ctx, c, t.Destination)

	if err != nil {
		return err
	}

	if exists {

		if !opts.Force {
			logger.Info("Asset already exists, skipping")
			t.State = StateSkipped
			return nil
		}

		r, err := remove.NewRemoval(c)

		if err != nil {
			return err
		}

		r.Logger = logger

		err = r.DeleteTree(ctx, t.Destination)

		if err != nil {
			return fmt.Errorf("Failed to remove existing asset, %w", err)
		}
	}

	props, err := exportProperties(img, t)

	if err != nil {
		return err
	}

	dest := &asset.Asset{
		ID:         t.Destination,
		Type:       asset.Image,
		Properties: props,
	}

	err = c.Create(ctx, dest)

	if err != nil {
		return fmt.Errorf("Failed to create asset, %w", err)
	}

	clone_opts := &clone.CloneDataOptions{
		Source:     c,
		Target:     c,
		SourceID:   img.ID,
		TargetID:   t.Destination,
		MaxRetries: opts.MaxRetries,
	}

	names, err := clone.CloneData(ctx, clone_opts)

	if err != nil {
		return err
	}

	for _, name := range names {

		fp, err := fingerprintData(ctx, c, t.Destination, name)

		if err != nil {
			return err
		}

		t.Outputs = append(t.Outputs, &Output{Name: name, Fingerprint: fp})
	}

	t.State = StateCompleted
	logger.Info("Exported image", "files", len(names))
	return nil
}

func exportProperties(img *asset.Asset, t *Task) ([]byte, error) {

	props := img.Properties

	if len(props) == 0 {
		props = []byte(`{}`)
	}

	var err error

	props, err = sjson.SetBytes(props, "system:export_source", img.ID)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign export source, %w", err)
	}

	props, err = sjson.SetBytes(props, "system:export_scale", t.Scale)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign export scale, %w", err)
	}

	if t.Region != nil {

		enc_region, err := geometry.MarshalRegion(t.Region)

		if err != nil {
			return nil, fmt.Errorf("Failed to marshal region, %w", err)
		}

		props, err = sjson.SetRawBytes(props, "system:footprint", enc_region)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign footprint, %w", err)
		}
	}

	return props, nil
}

func fingerprintData(ctx context.Context, c catalog.DataCatalog, id string, name string) (string, error) {

	r, err := c.NewDataReader(ctx, id, name)

	if err != nil {
		return "", err
	}

	defer r.Close()

	fp, err := common.Fingerprint(r)

	if err != nil {
		return "", fmt.Errorf("Failed to fingerprint %s/%s, %w", id, name, err)
	}

	return fp, nil
}
