package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/common"
	"github.com/sfomuseum/go-geetools/naming"
	"github.com/sfomuseum/go-geetools/operations/gather"
	"gocloud.dev/blob"
)

// ToBucketOptions is a struct containing configuration details for the ToBucket method.
type ToBucketOptions struct {
	// The catalog containing the source collection.
	Catalog catalog.DataCatalog
	// The ID of the ImageCollection to export.
	CollectionID string
	// The bucket that images are exported to.
	Bucket *blob.Bucket
	// An optional folder, in Bucket, that images are exported to.
	Folder string
	// The pattern used to name exported images. If empty naming.DefaultPattern is used.
	NamePattern string
	// The Joda-style date pattern used for the {system_date} key. If empty naming.DefaultDatePattern is used.
	DatePattern string
	// The data type of exported images. If empty DefaultDataType is used.
	DataType string
	// An optional canned ACL (for example "public-read") applied to files written to S3 buckets.
	ACL string
	// Replace files that already exist in Bucket. Otherwise they are skipped.
	Force bool
	// The area to export. If nil the bounds of the footprint of the first image in the collection are used.
	Region orb.Polygon
	// The scale, in metres per pixel, to export at. If zero DefaultScale is used.
	Scale float64
	// The maximum number of images to export. If zero every image is exported.
	MaxImages int
	// The maximum number of images to export at once. Defaults to 1.
	Workers int
	// The maximum number of times to retry writing a single file.
	MaxRetries uint64
	// An optional logger. If nil slog.Default() is used.
	Logger *slog.Logger
}

// ToBucket exports every image in the collection opts.CollectionID to opts.Bucket, returning one Task per image.
// Images are named using opts.NamePattern and each of their payload files is written as "{folder}/{name}{ext}",
// or "{folder}/{name}_{file}{ext}" for images with more than one file.
func ToBucket(ctx context.Context, opts *ToBucketOptions) ([]*Task, error) {

	if opts.Catalog == nil {
		return nil, errors.New("Missing catalog")
	}

	if opts.Bucket == nil {
		return nil, errors.New("Missing bucket")
	}

	data_type := opts.DataType

	if data_type == "" {
		data_type = DefaultDataType
	}

	if !IsDataType(data_type) {
		return nil, fmt.Errorf("Invalid data type '%s'", data_type)
	}

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("collection", opts.CollectionID, "folder", opts.Folder)

	images, err := listImages(ctx, opts.Catalog, opts.CollectionID, opts.MaxImages)

	if err != nil {
		return nil, err
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

		name, err := naming.MakeName(img.Name(), img.Properties, opts.NamePattern, opts.DatePattern)

		if err != nil {
			return nil, fmt.Errorf("Failed to derive name for %s, %w", img.ID, err)
		}

		t, err := newTask(img, path.Join(opts.Folder, name), name)

		if err != nil {
			return nil, err
		}

		t.Region = region
		t.Scale = scale
		t.DataType = data_type
		tasks[idx] = t
	}

	run_func := func(ctx context.Context, img *asset.Asset, t *Task) error {
		return exportToBucket(ctx, img, t, opts, logger)
	}

	err = runTasks(ctx, images, tasks, opts.Workers, run_func)

	if err != nil {
		return tasks, err
	}

	return tasks, nil
}

// BucketKeys returns the bucket key for each of the payload files of an image exported to destination.
func BucketKeys(destination string, names []string) []string {

	keys := make([]string, len(names))

	for idx, name := range names {

		ext := strings.ToLower(filepath.Ext(name))

		if len(names) == 1 {
			keys[idx] = destination + ext
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		keys[idx] = fmt.Sprintf("%s_%s%s", destination, stem, ext)
	}

	return keys
}

func exportToBucket(ctx context.Context, img *asset.Asset, t *Task, opts *ToBucketOptions, logger *slog.Logger) error {

	logger = logger.With("task", t.ID, "source", img.ID, "destination", t.Destination)

	names, err := opts.Catalog.ListData(ctx, img.ID)

	if err != nil {
		return fmt.Errorf("Failed to list data, %w", err)
	}

	if len(names) == 0 {
		return fmt.Errorf("%s has no data to export", img.ID)
	}

	keys := BucketKeys(t.Destination, names)

	if !opts.Force {

		all_exist := true

		for _, k := range keys {

			exists, err := opts.Bucket.Exists(ctx, k)

			if err != nil {
				return fmt.Errorf("Failed to determine whether %s exists, %w", k, err)
			}

			if !exists {
				all_exist = false
				break
			}
		}

		if all_exist {
			logger.Info("Export already exists, skipping")
			t.State = StateSkipped
			return nil
		}
	}

	for idx, name := range names {

		key := keys[idx]

		write_func := func() error {

			err := writeFile(ctx, img, t, name, key, opts)

			if err != nil && catalog.IsNotFound(err) {
				return backoff.Permanent(err)
			}

			return err
		}

		var b backoff.BackOff = backoff.NewExponentialBackOff()
		b = backoff.WithMaxRetries(b, opts.MaxRetries)
		b = backoff.WithContext(b, ctx)

		err := backoff.Retry(write_func, b)

		if err != nil {
			return fmt.Errorf("Failed to write %s, %w", key, err)
		}

		fp, err := common.FingerprintFile(ctx, opts.Bucket, key)

		if err != nil {
			return err
		}

		t.Outputs = append(t.Outputs, &Output{Name: path.Base(key), Fingerprint: fp})
		logger.Debug("Wrote file", "key", key)
	}

	t.State = StateCompleted
	logger.Info("Exported image", "files", len(names))
	return nil
}

func writeFile(ctx context.Context, img *asset.Asset, t *Task, name string, key string, opts *ToBucketOptions) error {

	r, err := opts.Catalog.NewDataReader(ctx, img.ID, name)

	if err != nil {
		return err
	}

	defer r.Close()

	wr_opts := &blob.WriterOptions{
		ContentType: gather.MimeType(key),
		Metadata: map[string]string{
			"source":    img.ID,
			"data_type": t.DataType,
			"scale":     strconv.FormatFloat(t.Scale, 'f', -1, 64),
		},
	}

	if opts.ACL != "" {

		acl := s3types.ObjectCannedACL(opts.ACL)

		wr_opts.BeforeWrite = func(asFunc func(interface{}) bool) error {

			var req *s3.PutObjectInput

			if asFunc(&req) {
				req.ACL = acl
			}

			return nil
		}
	}

	wr, err := opts.Bucket.NewWriter(ctx, key, wr_opts)

	if err != nil {
		return fmt.Errorf("Failed to create writer, %w", err)
	}

	_, err = io.Copy(wr, r)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to copy %s, %w", name, err)
	}

	return wr.Close()
}
