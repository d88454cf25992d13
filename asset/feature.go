package asset

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-geetools/geometry"
	"github.com/tidwall/gjson"
)

// type Properties stores a GeoJSON properties dictionary.
type Properties map[string]interface{}

// type Feature provides a GeoJSON struct describing an asset.
type Feature struct {
	Type       string            `json:"type"`
	Properties Properties        `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// type FeatureList provides a GeoJSON FeatureCollection struct for a list of asset features.
type FeatureList struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeatureOptions is a struct containing application-specific options used in the creation of asset features.
type NewFeatureOptions struct {
	// An optional geometry for the feature. If nil the asset's "system:footprint" property is used, if present.
	Geometry orb.Geometry
	// Custom properties to assign to the new Feature
	CustomProperties map[string]interface{}
}

// NewFeature returns a new Feature instance for an asset. Scalar asset properties are copied
// to the feature using the "asset:" prefix.
func NewFeature(a *Asset, opts *NewFeatureOptions) (*Feature, error) {

	if opts == nil {
		opts = &NewFeatureOptions{}
	}

	props := Properties{
		"asset:id":   a.ID,
		"asset:name": a.Name(),
		"asset:type": string(a.Type),
		"asset:kind": a.Kind().String(),
	}

	if len(a.Properties) > 0 {

		gjson.ParseBytes(a.Properties).ForEach(func(k gjson.Result, v gjson.Result) bool {

			switch v.Type {
			case gjson.String, gjson.Number, gjson.True, gjson.False:
				props[fmt.Sprintf("asset:%s", k.String())] = v.Value()
			default:
				// pass
			}

			return true
		})
	}

	for k, v := range opts.CustomProperties {
		props[k] = v
	}

	geom := opts.Geometry

	if geom == nil {

		fp := a.Property("system:footprint")

		if fp.Exists() && fp.IsObject() {

			g, err := geometry.UnmarshalGeometry([]byte(fp.Raw))

			if err == nil {
				geom = g
			}
		}
	}

	f := &Feature{
		Type:       "Feature",
		Properties: props,
	}

	if geom != nil {
		f.Geometry = geojson.NewGeometry(geom)
	}

	return f, nil
}

// NewFeatureList returns a FeatureList for zero or more features.
func NewFeatureList(features ...*Feature) *FeatureList {

	if features == nil {
		features = make([]*Feature, 0)
	}

	return &FeatureList{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// Marshal returns the JSON encoding of the feature collection.
func (fc *FeatureList) Marshal() ([]byte, error) {
	return json.Marshal(fc)
}
