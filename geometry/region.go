package geometry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-geetools/common"
	"github.com/tidwall/gjson"
)

// Region returns the bounding rectangle, as a polygon, of a GeoJSON geometry, Feature or FeatureCollection document.
func Region(body []byte) (orb.Polygon, error) {

	var bound orb.Bound

	switch gjson.GetBytes(body, "type").String() {
	case "Feature":

		f, err := geojson.UnmarshalFeature(body)

		if err != nil {
			return nil, fmt.Errorf("Failed to unmarshal feature, %w", err)
		}

		if f.Geometry == nil {
			return nil, errors.New("Feature has no geometry")
		}

		bound = f.Geometry.Bound()

	case "FeatureCollection":

		fc, err := geojson.UnmarshalFeatureCollection(body)

		if err != nil {
			return nil, fmt.Errorf("Failed to unmarshal feature collection, %w", err)
		}

		if len(fc.Features) == 0 {
			return nil, errors.New("Feature collection has no features")
		}

		found := false

		for _, f := range fc.Features {

			if f.Geometry == nil {
				continue
			}

			if !found {
				bound = f.Geometry.Bound()
				found = true
				continue
			}

			bound = bound.Union(f.Geometry.Bound())
		}

		if !found {
			return nil, errors.New("Feature collection has no geometries")
		}

	default:

		geom, err := UnmarshalGeometry(body)

		if err != nil {
			return nil, err
		}

		bound = geom.Bound()
	}

	return bound.ToPolygon(), nil
}

// ReadRegion reads a GeoJSON document from a whosonfirst/go-reader URI and returns its bounding rectangle.
func ReadRegion(ctx context.Context, reader_uri string, path string) (orb.Polygon, error) {

	r, err := common.NewReader(ctx, reader_uri)

	if err != nil {
		return nil, err
	}

	fh, err := r.Read(ctx, path)

	if err != nil {
		return nil, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	defer fh.Close()

	body, err := io.ReadAll(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to read body for %s, %w", path, err)
	}

	return Region(body)
}

// MarshalRegion returns the GeoJSON encoding of a region.
func MarshalRegion(region orb.Polygon) ([]byte, error) {
	return geojson.NewGeometry(region).MarshalJSON()
}
