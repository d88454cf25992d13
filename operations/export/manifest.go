package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/common"
	"github.com/whosonfirst/go-ioutil"
)

// NewManifest returns a GeoJSON FeatureCollection with one feature for each task. Each feature's geometry is
// the task's region.
func NewManifest(tasks []*Task) (*asset.FeatureList, error) {

	features := make([]*asset.Feature, 0, len(tasks))

	for _, t := range tasks {

		if t == nil {
			continue
		}

		a := &asset.Asset{
			ID:   t.Destination,
			Type: asset.Image,
		}

		outputs := make([]map[string]string, len(t.Outputs))

		for idx, o := range t.Outputs {
			outputs[idx] = map[string]string{
				"name":        o.Name,
				"fingerprint": o.Fingerprint,
			}
		}

		feature_opts := &asset.NewFeatureOptions{
			CustomProperties: map[string]interface{}{
				"task:id":          t.ID,
				"task:description": t.Description,
				"task:source":      t.Source,
				"task:destination": t.Destination,
				"task:scale":       t.Scale,
				"task:data_type":   t.DataType,
				"task:state":       string(t.State),
				"task:outputs":     outputs,
			},
		}

		if t.Error != "" {
			feature_opts.CustomProperties["task:error"] = t.Error
		}

		if t.Region != nil {
			feature_opts.Geometry = t.Region
		}

		f, err := asset.NewFeature(a, feature_opts)

		if err != nil {
			return nil, fmt.Errorf("Failed to create feature for task %s, %w", t.ID, err)
		}

		features = append(features, f)
	}

	return asset.NewFeatureList(features...), nil
}

// WriteManifest writes the manifest for tasks to key using a whosonfirst/go-writer URI.
func WriteManifest(ctx context.Context, writer_uri string, key string, tasks []*Task) error {

	fc, err := NewManifest(tasks)

	if err != nil {
		return err
	}

	body, err := fc.Marshal()

	if err != nil {
		return fmt.Errorf("Failed to marshal manifest, %w", err)
	}

	wr, err := common.NewWriter(ctx, writer_uri)

	if err != nil {
		return err
	}

	fh, err := ioutil.NewReadSeekCloser(bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("Failed to create ReadSeekCloser for manifest, %w", err)
	}

	_, err = wr.Write(ctx, key, fh)

	if err != nil {
		return fmt.Errorf("Failed to write manifest to %s, %w", key, err)
	}

	err = wr.Flush(ctx)

	if err != nil {
		return fmt.Errorf("Failed to flush manifest writer, %w", err)
	}

	return nil
}
