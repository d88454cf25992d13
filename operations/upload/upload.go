package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/lookup"
	"github.com/sfomuseum/go-geetools/operations/create"
	"github.com/sfomuseum/go-geetools/operations/gather"
	"github.com/tidwall/sjson"
	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"
)

// The name of the payload file written for each uploaded image, before its extension.
const DataName = "image"

var re_invalid = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

// UploadImagesOptions is a struct containing configuration details for the UploadImages method.
type UploadImagesOptions struct {
	// Create the collection, and any missing parent folders, if it doesn't already exist.
	Create bool
	// Replace images that already exist in the collection.
	Force bool
	// Skip images whose fingerprint matches an image already in the collection, or an image seen earlier in the crawl.
	SkipDuplicates bool
	// Additional sources of existing images to check for duplicates when SkipDuplicates is true.
	LookerUppers []lookup.LookerUpper
	// The maximum number of images to upload at once. Defaults to 1.
	Workers int
	// An optional logger. If nil slog.Default() is used.
	Logger *slog.Logger
}

// UploadImages crawls bucket for images and creates one Image asset, with its payload, for each of them in
// the ImageCollection collection_id. The assets that were created are returned.
func UploadImages(ctx context.Context, bucket *blob.Bucket, c catalog.DataCatalog, collection_id string, opts *UploadImagesOptions) ([]*asset.Asset, error) {

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("collection", collection_id)

	collection, err := prepareCollection(ctx, c, collection_id, opts, logger)

	if err != nil {
		return nil, err
	}

	var fingerprints *sync.Map

	if opts.SkipDuplicates {

		fingerprints, err = fingerprintLookup(ctx, c, collection.ID, opts.LookerUppers)

		if err != nil {
			return nil, err
		}
	}

	workers := opts.Workers

	if workers < 1 {
		workers = 1
	}

	g, g_ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	uploaded := make([]*asset.Asset, 0)
	uploaded_mu := new(sync.Mutex)

	seen := new(sync.Map)

	cb := func(ctx context.Context, rsp *gather.GatherImagesResponse) error {

		id, err := ImageID(collection.ID, rsp.Path)

		if err != nil {
			return err
		}

		_, exists := seen.LoadOrStore(id, rsp.Path)

		if exists {
			logger.Warn("Skipping image with duplicate name", "path", rsp.Path, "id", id)
			return nil
		}

		if fingerprints != nil {

			existing, exists := fingerprints.LoadOrStore(rsp.Fingerprint, id)

			if exists && existing.(string) != id {
				logger.Info("Skipping duplicate image", "path", rsp.Path, "fingerprint", rsp.Fingerprint, "existing", existing)
				return nil
			}
		}

		g.Go(func() error {

			a, err := uploadImage(g_ctx, bucket, c, id, rsp, opts, logger)

			if err != nil {
				return fmt.Errorf("Failed to upload %s, %w", rsp.Path, err)
			}

			if a == nil {
				return nil
			}

			uploaded_mu.Lock()
			uploaded = append(uploaded, a)
			uploaded_mu.Unlock()

			return nil
		})

		return nil
	}

	crawl_err := gather.CrawlImages(g_ctx, bucket, cb)

	err = g.Wait()

	if crawl_err != nil && !errors.Is(crawl_err, context.Canceled) {
		return uploaded, fmt.Errorf("Failed to crawl images, %w", crawl_err)
	}

	if err != nil {
		return uploaded, err
	}

	if crawl_err != nil {
		return uploaded, crawl_err
	}

	return uploaded, nil
}

// ImageID returns the asset ID for the image stored at path in the collection collection_id.
// The ID is derived from the image's filename, less its extension.
func ImageID(collection_id string, path string) (string, error) {

	fname := filepath.Base(path)
	fname = strings.TrimSuffix(fname, filepath.Ext(fname))

	name := re_invalid.ReplaceAllString(fname, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "", fmt.Errorf("Unable to derive a name for %s", path)
	}

	return asset.Join(collection_id, name), nil
}

func fingerprintLookup(ctx context.Context, c catalog.Catalog, collection_id string, looker_uppers []lookup.LookerUpper) (*sync.Map, error) {

	catalog_lookup, err := lookup.NewCatalogLookerUpper(ctx, c, collection_id)

	if err != nil {
		return nil, err
	}

	looker_uppers = append([]lookup.LookerUpper{catalog_lookup}, looker_uppers...)
	append_funcs := []lookup.AppendLookupFunc{lookup.FirstFingerprintAppendLookupFunc}

	lu, err := lookup.NewLookupMap(ctx, looker_uppers, append_funcs)

	if err != nil {
		return nil, fmt.Errorf("Failed to build fingerprint lookup, %w", err)
	}

	return lu, nil
}

func prepareCollection(ctx context.Context, c catalog.Catalog, collection_id string, opts *UploadImagesOptions, logger *slog.Logger) (*asset.Asset, error) {

	if opts.Create {

		create_opts := &create.CreateAssetsOptions{
			Type:        asset.ImageCollection,
			MakeParents: true,
			Logger:      logger,
		}

		assets, err := create.CreateAssets(ctx, c, create_opts, collection_id)

		if err != nil {
			return nil, fmt.Errorf("Failed to create collection, %w", err)
		}

		return assets[0], nil
	}

	collection, err := c.Info(ctx, collection_id)

	if err != nil {
		return nil, fmt.Errorf("Failed to retrieve collection, %w", err)
	}

	if collection.Type != asset.ImageCollection {
		return nil, fmt.Errorf("%s is a %s, not an %s", collection.ID, collection.Type, asset.ImageCollection)
	}

	return collection, nil
}

func uploadImage(ctx context.Context, bucket *blob.Bucket, c catalog.DataCatalog, id string, rsp *gather.GatherImagesResponse, opts *UploadImagesOptions, logger *slog.Logger) (*asset.Asset, error) {

	logger = logger.With("id", id, "path", rsp.Path)

	existing, err := c.Info(ctx, id)

	switch {
	case err == nil:

		if !opts.Force {
			logger.Info("Image already exists, skipping")
			return nil, nil
		}

		if existing.Kind() != asset.Leaf {
			return nil, fmt.Errorf("%s already exists as a %s", id, existing.Type)
		}

		err := c.Delete(ctx, id)

		if err != nil {
			return nil, fmt.Errorf("Failed to remove existing image, %w", err)
		}

	case catalog.IsNotFound(err):
		// pass
	default:
		return nil, err
	}

	props, err := imageProperties(rsp)

	if err != nil {
		return nil, err
	}

	a := &asset.Asset{
		ID:         id,
		Type:       asset.Image,
		Properties: props,
	}

	err = c.Create(ctx, a)

	if err != nil {
		return nil, err
	}

	name := DataName + strings.ToLower(filepath.Ext(rsp.Path))

	r, err := bucket.NewReader(ctx, rsp.Path, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for reading, %w", rsp.Path, err)
	}

	defer r.Close()

	wr, err := c.NewDataWriter(ctx, id, name, &blob.WriterOptions{
		ContentType: rsp.MimeType,
	})

	if err != nil {
		return nil, err
	}

	_, err = io.Copy(wr, r)

	if err != nil {
		wr.Close()
		return nil, fmt.Errorf("Failed to copy %s, %w", rsp.Path, err)
	}

	err = wr.Close()

	if err != nil {
		return nil, fmt.Errorf("Failed to write %s, %w", name, err)
	}

	logger.Info("Uploaded image")
	return a, nil
}

func imageProperties(rsp *gather.GatherImagesResponse) ([]byte, error) {

	props := []byte(`{}`)

	updates := map[string]interface{}{
		"source":      rsp.Path,
		"fingerprint": rsp.Fingerprint,
		"mimetype":    rsp.MimeType,
	}

	if rsp.Captured != nil {
		updates["system:time_start"] = rsp.Captured.UnixMilli()
	}

	var err error

	for path, value := range updates {

		props, err = sjson.SetBytes(props, path, value)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign %s property, %w", path, err)
		}
	}

	return props, nil
}
