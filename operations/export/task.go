package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaronland/go-string/random"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/geometry"
	"golang.org/x/sync/errgroup"
)

// The default scale, in metres per pixel, of exported images.
const DefaultScale = 30.0

// The default data type of exported images.
const DefaultDataType = "float"

// State is the state of an export task.
type State string

const (
	StatePending   State = "PENDING"
	StateCompleted State = "COMPLETED"
	StateSkipped   State = "SKIPPED"
	StateFailed    State = "FAILED"
)

var data_types = map[string]bool{
	"float":  true,
	"double": true,
	"int":    true,
	"byte":   true,
	"uint8":  true,
	"int8":   true,
	"uint16": true,
	"int16":  true,
	"uint32": true,
	"int32":  true,
}

// IsDataType reports whether t is a data type that images can be exported as. Comparisons are case-insensitive.
func IsDataType(t string) bool {
	return data_types[strings.ToLower(t)]
}

// Output is a single file written by an export task.
type Output struct {
	// The name of the file, relative to the task's destination.
	Name string `json:"name"`
	// The SHA-1 hash of the file.
	Fingerprint string `json:"fingerprint"`
}

// Task is the record of exporting one image.
type Task struct {
	// A unique identifier for the task.
	ID string `json:"id"`
	// A human-readable description of the task, typically the name of the exported image.
	Description string `json:"description"`
	// The ID of the image being exported.
	Source string `json:"source"`
	// The asset ID or bucket key prefix the image is exported to.
	Destination string `json:"destination"`
	// The area of the image that was exported.
	Region orb.Polygon `json:"-"`
	// The scale, in metres per pixel, of the export.
	Scale float64 `json:"scale"`
	// The data type of the export.
	DataType string `json:"data_type"`
	// The files written by the task.
	Outputs []*Output `json:"outputs"`
	State   State     `json:"state"`
	// The reason the task failed, if it did.
	Error string `json:"error,omitempty"`
}

func newTask(source *asset.Asset, destination string, description string) (*Task, error) {

	rand_opts := random.DefaultOptions()
	rand_opts.AlphaNumeric = true

	id, err := random.String(rand_opts)

	if err != nil {
		return nil, fmt.Errorf("Failed to generate task ID, %w", err)
	}

	t := &Task{
		ID:          id,
		Description: description,
		Source:      source.ID,
		Destination: destination,
		Outputs:     make([]*Output, 0),
		State:       StatePending,
	}

	return t, nil
}

func (t *Task) fail(err error) error {
	t.State = StateFailed
	t.Error = err.Error()
	return fmt.Errorf("Task %s (%s) failed, %w", t.ID, t.Source, err)
}

// listImages returns, in catalog order, the images of an ImageCollection up to max_images (if greater than zero).
func listImages(ctx context.Context, c catalog.Catalog, collection_id string, max_images int) ([]*asset.Asset, error) {

	collection, err := c.Info(ctx, collection_id)

	if err != nil {
		return nil, fmt.Errorf("Failed to retrieve collection, %w", err)
	}

	if collection.Type != asset.ImageCollection {
		return nil, fmt.Errorf("%s is a %s, not an %s", collection.ID, collection.Type, asset.ImageCollection)
	}

	children, err := c.List(ctx, collection.ID)

	if err != nil {
		return nil, fmt.Errorf("Failed to list images in %s, %w", collection.ID, err)
	}

	images := make([]*asset.Asset, 0, len(children))

	for _, img := range children {

		if img.Type != asset.Image {
			continue
		}

		images = append(images, img)

		if max_images > 0 && len(images) == max_images {
			break
		}
	}

	return images, nil
}

// defaultRegion returns the bounds of the footprint of the first image, or nil if it doesn't have one.
func defaultRegion(images []*asset.Asset) (orb.Polygon, error) {

	if len(images) == 0 {
		return nil, nil
	}

	fp := images[0].Property("system:footprint")

	if !fp.Exists() {
		return nil, nil
	}

	region, err := geometry.Region([]byte(fp.Raw))

	if err != nil {
		return nil, fmt.Errorf("Failed to derive region from %s, %w", images[0].ID, err)
	}

	return region, nil
}

type runTaskFunc func(context.Context, *asset.Asset, *Task) error

// runTasks invokes run_func for each task, at most workers at a time. The first failure cancels the tasks
// that haven't started yet.
func runTasks(ctx context.Context, images []*asset.Asset, tasks []*Task, workers int, run_func runTaskFunc) error {

	if workers < 1 {
		workers = 1
	}

	g, g_ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx, img := range images {

		task := tasks[idx]

		g.Go(func() error {

			select {
			case <-g_ctx.Done():
				return g_ctx.Err()
			default:
				// pass
			}

			err := run_func(g_ctx, img, task)

			if err != nil {
				return task.fail(err)
			}

			return nil
		})
	}

	return g.Wait()
}
