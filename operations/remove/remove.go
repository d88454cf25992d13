package remove

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
)

// RemoveCallbackFunc is invoked after each asset is successfully deleted.
type RemoveCallbackFunc func(context.Context, *asset.Asset) error

// Removal recursively deletes asset trees from a catalog. Every delete is applied immediately
// and cannot be undone; there is no dry-run mode and nothing is rolled back on failure.
type Removal struct {
	// The catalog to delete assets from.
	Catalog catalog.Catalog
	// An optional logger. If nil slog.Default() is used.
	Logger *slog.Logger
	// An optional callback invoked after each asset is deleted.
	Callback RemoveCallbackFunc
}

func NewRemoval(c catalog.Catalog) (*Removal, error) {

	if c == nil {
		return nil, errors.New("Missing catalog")
	}

	r := &Removal{
		Catalog: c,
	}

	return r, nil
}

// Remove deletes zero or more asset trees, one after the other. A failure for one tree
// is reported and doesn't stop the others; all the failures are returned together.
func (r *Removal) Remove(ctx context.Context, ids ...string) error {

	var result *multierror.Error

	for _, id := range ids {

		err := r.DeleteTree(ctx, id)

		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// DeleteTree deletes the asset id. Leaves are deleted directly. The children of a container are
// deleted (recursively, for child containers) before the container itself. Assets of any other
// type are not deleted and neither are their ancestors.
func (r *Removal) DeleteTree(ctx context.Context, id string) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		// pass
	}

	logger := r.logger().With("id", id)

	info, err := r.Catalog.Info(ctx, id)

	if err != nil {

		if catalog.IsNotFound(err) {
			logger.Warn("Asset does not exist")
			return &NotFoundError{ID: id}
		}

		logger.Error("Failed to retrieve asset", "error", err)
		return &CatalogQueryError{ID: id, Op: OpInfo, Err: err}
	}

	switch info.Kind() {
	case asset.Leaf:
		return r.delete(ctx, info)
	case asset.Container:
		return r.deleteContainer(ctx, info)
	default:
		logger.Warn("Unsupported asset type", "type", info.Type)
		return &UnsupportedTypeError{ID: info.ID, Type: info.Type}
	}
}

func (r *Removal) deleteContainer(ctx context.Context, container *asset.Asset) error {

	logger := r.logger().With("id", container.ID)

	children, err := r.Catalog.List(ctx, container.ID)

	if err != nil {
		logger.Error("Failed to list children", "error", err)
		return &CatalogQueryError{ID: container.ID, Op: OpList, Err: err}
	}

	logger.Debug("Delete container", "type", container.Type, "children", len(children))

	// Children whose own children couldn't be listed are skipped, along with the current
	// container, but the remaining siblings are still processed.

	var skipped *multierror.Error

	size := len(children)

	for idx := 0; idx < size; idx++ {

		child := children[idx]

		var err error

		if child.Kind() == asset.Leaf {
			err = r.delete(ctx, child)
		} else {
			err = r.DeleteTree(ctx, child.ID)
		}

		if err == nil {
			continue
		}

		if isListError(err) {
			skipped = multierror.Append(skipped, err)
			continue
		}

		return err
	}

	if skipped != nil {
		logger.Warn("Container not deleted because one or more children could not be listed")
		return skipped.ErrorOrNil()
	}

	return r.delete(ctx, container)
}

func (r *Removal) delete(ctx context.Context, a *asset.Asset) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		// pass
	}

	logger := r.logger().With("id", a.ID)

	err := r.Catalog.Delete(ctx, a.ID)

	if err != nil {
		logger.Error("Failed to delete asset", "error", err)
		return &CatalogQueryError{ID: a.ID, Op: OpDelete, Err: err}
	}

	logger.Info("Deleted asset", "type", a.Type)

	if r.Callback != nil {

		err := r.Callback(ctx, a)

		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Removal) logger() *slog.Logger {

	if r.Logger != nil {
		return r.Logger
	}

	return slog.Default()
}

func isListError(err error) bool {

	var merr *multierror.Error

	if errors.As(err, &merr) {

		for _, e := range merr.Errors {
			if !isListError(e) {
				return false
			}
		}

		return len(merr.Errors) > 0
	}

	var qerr *CatalogQueryError

	if errors.As(err, &qerr) {
		return qerr.Op == OpList
	}

	return false
}
