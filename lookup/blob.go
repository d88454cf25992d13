package lookup

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gocloud.dev/blob"
)

// BlobLookerUpper populates lookup tables from the GeoJSON asset features (as produced by
// asset.NewFeature) stored in a bucket. Files may contain a single Feature or a FeatureCollection.
type BlobLookerUpper struct {
	LookerUpper
	bucket *blob.Bucket
}

func NewBlobLookerUpper(ctx context.Context, uri string) (LookerUpper, error) {

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, err
	}

	return NewBlobLookerUpperWithBucket(ctx, bucket)
}

func NewBlobLookerUpperWithBucket(ctx context.Context, bucket *blob.Bucket) (LookerUpper, error) {

	l := &BlobLookerUpper{
		bucket: bucket,
	}

	return l, nil
}

func (l *BlobLookerUpper) Append(ctx context.Context, lu *sync.Map, append_funcs ...AppendLookupFunc) error {

	bucket_iter := l.bucket.List(nil)

	for {
		obj, err := bucket_iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}

		if filepath.Ext(obj.Key) != ".geojson" {
			continue
		}

		body, err := l.bucket.ReadAll(ctx, obj.Key)

		if err != nil {
			return fmt.Errorf("Failed to read %s, %w", obj.Key, err)
		}

		features := []gjson.Result{gjson.ParseBytes(body)}

		if features[0].Get("type").String() == "FeatureCollection" {
			features = features[0].Get("features").Array()
		}

		for _, f := range features {

			a, err := featureAsset(f)

			if err != nil {
				return fmt.Errorf("Invalid feature in %s, %w", obj.Key, err)
			}

			if a == nil {
				continue
			}

			err = appendAsset(ctx, lu, a, append_funcs...)

			if err != nil {
				return err
			}
		}
	}

	return nil
}

// featureAsset returns the asset described by f, or nil if f does not describe an asset.
func featureAsset(f gjson.Result) (*asset.Asset, error) {

	props := f.Get("properties")

	id_rsp := props.Get(gjson.Escape("asset:id"))

	if !id_rsp.Exists() {
		return nil, nil
	}

	a := &asset.Asset{
		ID:   id_rsp.String(),
		Type: asset.Type(props.Get(gjson.Escape("asset:type")).String()),
	}

	asset_props := []byte(`{}`)

	var err error

	props.ForEach(func(k gjson.Result, v gjson.Result) bool {

		key, ok := strings.CutPrefix(k.String(), "asset:")

		if !ok {
			return true
		}

		switch key {
		case "id", "name", "type", "kind":
			return true
		default:
			// pass
		}

		asset_props, err = sjson.SetRawBytes(asset_props, key, []byte(v.Raw))
		return err == nil
	})

	if err != nil {
		return nil, err
	}

	a.Properties = asset_props
	return a, nil
}
