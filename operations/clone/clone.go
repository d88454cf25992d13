package clone

// copy the payload files of an asset from one catalog to another

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v4"
	"github.com/sfomuseum/go-geetools/catalog"
	"gocloud.dev/blob"
)

type CloneDataOptions struct {
	Source   catalog.DataCatalog
	Target   catalog.DataCatalog
	SourceID string
	TargetID string
	// The maximum number of times to retry copying a single file.
	MaxRetries uint64
	// Optional writer options for each file written to Target.
	WriterOptions *blob.WriterOptions
}

// CloneData copies every payload file of opts.SourceID to opts.TargetID, which must already exist,
// and returns the names of the files copied.
func CloneData(ctx context.Context, opts *CloneDataOptions) ([]string, error) {

	if opts.Source == nil || opts.Target == nil {
		return nil, errors.New("Missing source or target catalog")
	}

	names, err := opts.Source.ListData(ctx, opts.SourceID)

	if err != nil {
		return nil, fmt.Errorf("Failed to list data for %s, %w", opts.SourceID, err)
	}

	for _, name := range names {

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// pass
		}

		copy_func := func() error {

			err := copyFile(ctx, opts, name)

			if err != nil && catalog.IsNotFound(err) {
				return backoff.Permanent(err)
			}

			return err
		}

		var b backoff.BackOff = backoff.NewExponentialBackOff()
		b = backoff.WithMaxRetries(b, opts.MaxRetries)
		b = backoff.WithContext(b, ctx)

		err := backoff.Retry(copy_func, b)

		if err != nil {
			return nil, fmt.Errorf("Failed to copy %s from %s to %s, %w", name, opts.SourceID, opts.TargetID, err)
		}
	}

	return names, nil
}

func copyFile(ctx context.Context, opts *CloneDataOptions, name string) error {

	source_fh, err := opts.Source.NewDataReader(ctx, opts.SourceID, name)

	if err != nil {
		return err
	}

	defer source_fh.Close()

	target_wr, err := opts.Target.NewDataWriter(ctx, opts.TargetID, name, opts.WriterOptions)

	if err != nil {
		return err
	}

	_, err = io.Copy(target_wr, source_fh)

	if err != nil {
		target_wr.Close()
		return err
	}

	return target_wr.Close()
}
