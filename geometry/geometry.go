package geometry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// GeometryTypes is the set of geometry type names understood by the remote catalog.
var GeometryTypes = map[string]bool{
	"LineString":         true,
	"LineRing":           true,
	"MultiLineString":    true,
	"MultiPolygon":       true,
	"MultiPoint":         true,
	"Point":              true,
	"Polygon":            true,
	"Rectangle":          true,
	"GeometryCollection": true,
}

// IsGeometryType reports whether t is a known geometry type name.
func IsGeometryType(t string) bool {
	_, ok := GeometryTypes[t]
	return ok
}

// IsPoint reports whether v is a list of 2 or 3 values whose first two values are numbers.
func IsPoint(v interface{}) bool {

	pt, ok := v.([]interface{})

	if !ok {
		return false
	}

	if len(pt) != 2 && len(pt) != 3 {
		return false
	}

	return isNumber(pt[0]) && isNumber(pt[1])
}

func isNumber(v interface{}) bool {

	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	default:
		return false
	}
}

// RemoveZ removes the Z value of every point in a (nested) list of coordinates, in place,
// and returns the updated list.
func RemoveZ(coords interface{}) interface{} {

	if IsPoint(coords) {

		pt := coords.([]interface{})

		if len(pt) == 3 {
			pt = pt[:2]
		}

		return pt
	}

	list, ok := coords.([]interface{})

	if !ok {
		return coords
	}

	for i, c := range list {
		list[i] = RemoveZ(c)
	}

	return list
}

// RemoveZBytes removes the Z value of every point in a GeoJSON geometry document.
func RemoveZBytes(body []byte) ([]byte, error) {

	coords_rsp := gjson.GetBytes(body, "coordinates")

	if !coords_rsp.Exists() {
		return body, nil
	}

	var coords interface{}

	err := json.Unmarshal([]byte(coords_rsp.Raw), &coords)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode coordinates, %w", err)
	}

	return sjson.SetBytes(body, "coordinates", RemoveZ(coords))
}

// UnmarshalGeometry decodes a GeoJSON geometry document. Linear rings, as reported in
// asset footprints, are decoded as line strings.
func UnmarshalGeometry(body []byte) (orb.Geometry, error) {

	t := gjson.GetBytes(body, "type").String()

	switch t {
	case "LinearRing", "LineRing":

		b, err := sjson.SetBytes(body, "type", "LineString")

		if err != nil {
			return nil, fmt.Errorf("Failed to update geometry type, %w", err)
		}

		body = b

	default:
		// pass
	}

	g, err := geojson.UnmarshalGeometry(body)

	if err != nil {
		return nil, fmt.Errorf("Failed to unmarshal %s geometry, %w", t, err)
	}

	geom := g.Geometry()

	if geom == nil {
		return nil, errors.New("Empty geometry")
	}

	return geom, nil
}
