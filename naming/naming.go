// Package naming derives output names for exported images from their metadata.
package naming

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultPattern is the name pattern used when none is specified.
const DefaultPattern = "{id}"

// DefaultDatePattern is the date pattern used for the {system_date} key when none is specified.
const DefaultDatePattern = "yyyyMMdd"

// Format replaces every "{key}" in template with the corresponding value in values.
// Unknown keys are left in place.
func Format(template string, values map[string]string) string {

	keys := make([]string, 0, len(values))

	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := template

	for _, k := range keys {
		pattern := fmt.Sprintf("{%s}", k)
		out = strings.ReplaceAll(out, pattern, values[k])
	}

	return out
}

// Values returns the scalar properties of a JSON-encoded properties dictionary as strings,
// along with the "id" key set to id and, if a "system:time_start" property (milliseconds since
// the epoch) is present, a "system_date" key formatted using the date pattern.
func Values(id string, props []byte, date_pattern string) (map[string]string, error) {

	values := make(map[string]string)

	if len(props) > 0 {

		if !gjson.ValidBytes(props) {
			return nil, fmt.Errorf("Invalid properties for %s", id)
		}

		gjson.ParseBytes(props).ForEach(func(k gjson.Result, v gjson.Result) bool {

			switch v.Type {
			case gjson.String, gjson.Number, gjson.True, gjson.False:
				values[k.String()] = v.String()
			default:
				// pass
			}

			return true
		})
	}

	if id != "" {
		values["id"] = id
	}

	ts_rsp := gjson.GetBytes(props, "system:time_start")

	if ts_rsp.Exists() {

		if date_pattern == "" {
			date_pattern = DefaultDatePattern
		}

		layout, err := DateLayout(date_pattern)

		if err != nil {
			return nil, err
		}

		t := time.UnixMilli(ts_rsp.Int()).UTC()
		values["system_date"] = t.Format(layout)
	}

	return values, nil
}

// MakeName derives a name for an image from its id, its properties and a pattern such as "{id}_{system_date}".
func MakeName(id string, props []byte, pattern string, date_pattern string) (string, error) {

	if id == "" {
		return "", errors.New("Missing id")
	}

	if pattern == "" {
		pattern = DefaultPattern
	}

	values, err := Values(id, props, date_pattern)

	if err != nil {
		return "", err
	}

	name := Format(pattern, values)

	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("Pattern '%s' yields an empty name for %s", pattern, id)
	}

	return name, nil
}
