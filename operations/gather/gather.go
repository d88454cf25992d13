package gather

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/sfomuseum/go-geetools/common"
	"github.com/sfomuseum/go-geetools/naming"
	"gocloud.dev/blob"
)

type GatherImagesResponse struct {
	// The key of the image in the bucket it was gathered from.
	Path string
	// The SHA-1 hash of the image.
	Fingerprint string
	// The mimetype derived from the image's extension.
	MimeType string
	// The time the image was captured, if it could be read from its EXIF data.
	Captured *time.Time
}

type GatherImageCallbackFunc func(context.Context, *GatherImagesResponse) error

// Iterate through all the items stored in a blob.Bucket instance, generate a GatherImagesResponse for things
// that are images and pass that response to a user-defined callback. Callbacks are invoked one at a time,
// in bucket order, and the first error stops the crawl.
func CrawlImages(ctx context.Context, bucket *blob.Bucket, cb GatherImageCallbackFunc) error {

	var list func(context.Context, *blob.Bucket, string) error

	list = func(ctx context.Context, b *blob.Bucket, prefix string) error {

		iter := b.List(&blob.ListOptions{
			Delimiter: "/",
			Prefix:    prefix,
		})

		for {

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				// pass
			}

			obj, err := iter.Next(ctx)

			if err == io.EOF {
				break
			}

			if err != nil {
				return err
			}

			if obj.IsDir {

				err := list(ctx, b, obj.Key)

				if err != nil {
					return err
				}

				continue
			}

			rsp, err := GatherImageResponseWithPath(ctx, b, obj.Key)

			if err != nil {
				return err
			}

			if rsp == nil {
				continue
			}

			err = cb(ctx, rsp)

			if err != nil {
				return err
			}
		}

		return nil
	}

	return list(ctx, bucket, "")
}

// GatherImageResponseWithPath returns a GatherImagesResponse for path, or nil if path is not an image.
func GatherImageResponseWithPath(ctx context.Context, bucket *blob.Bucket, path string) (*GatherImagesResponse, error) {

	t := MimeType(path)

	if !strings.HasPrefix(t, "image/") {
		return nil, nil
	}

	fp, err := common.FingerprintFile(ctx, bucket, path)

	if err != nil {
		return nil, err
	}

	rsp := &GatherImagesResponse{
		Path:        path,
		MimeType:    t,
		Fingerprint: fp,
	}

	switch t {
	case "image/jpeg", "image/tiff":

		r, err := bucket.NewReader(ctx, path, nil)

		if err != nil {
			return nil, err
		}

		defer r.Close()

		captured, err := naming.ExifTime(r)

		if err != nil {
			slog.Debug("Failed to derive capture time", "path", path, "error", err)
		} else {
			rsp.Captured = &captured
		}

	default:
		// pass
	}

	return rsp, nil
}

// MimeType returns the mimetype for path, derived from its extension. GeoTIFF extensions are
// not always registered with the system so they are handled explicitly.
func MimeType(path string) string {

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".tif", ".tiff":
		return "image/tiff"
	case "":
		return ""
	default:
		t := mime.TypeByExtension(ext)

		if idx := strings.Index(t, ";"); idx != -1 {
			t = t[:idx]
		}

		return t
	}
}
