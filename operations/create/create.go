package create

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
)

// TypeMismatchError is returned when an asset already exists with a different type than the one being created.
type TypeMismatchError struct {
	ID       string
	Existing asset.Type
	Wanted   asset.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s is a %s. Can't create %s asset", e.ID, e.Existing, e.Wanted)
}

// CreateAssetsOptions is a struct containing configuration details for the CreateAssets method.
type CreateAssetsOptions struct {
	// The type of asset to create. Must be a container type (Folder or ImageCollection).
	Type asset.Type
	// Create any missing intermediate folders below the root folder.
	MakeParents bool
	// An optional logger. If nil slog.Default() is used.
	Logger *slog.Logger
}

// CreateAssets creates each asset in ids if it doesn't already exist. Existing assets of the same type
// are left alone; existing assets of a different type yield a TypeMismatchError. The assets for every id,
// whether created or pre-existing, are returned.
func CreateAssets(ctx context.Context, c catalog.Catalog, opts *CreateAssetsOptions, ids ...string) ([]*asset.Asset, error) {

	if asset.KindOf(opts.Type) != asset.Container {
		return nil, fmt.Errorf("Invalid asset type '%s', must be %s or %s", opts.Type, asset.Folder, asset.ImageCollection)
	}

	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	assets := make([]*asset.Asset, 0, len(ids))

	for _, id := range ids {

		select {
		case <-ctx.Done():
			return assets, ctx.Err()
		default:
			// pass
		}

		id, err := asset.Clean(id)

		if err != nil {
			return assets, fmt.Errorf("Invalid asset ID, %w", err)
		}

		existing, err := c.Info(ctx, id)

		if err == nil {

			if existing.Type != opts.Type {
				return assets, &TypeMismatchError{ID: id, Existing: existing.Type, Wanted: opts.Type}
			}

			logger.Info("Asset already exists", "id", id)
			assets = append(assets, existing)
			continue
		}

		if !catalog.IsNotFound(err) {
			return assets, fmt.Errorf("Failed to retrieve %s, %w", id, err)
		}

		if opts.MakeParents {

			err := makeParents(ctx, c, logger, id)

			if err != nil {
				return assets, err
			}
		}

		a := &asset.Asset{
			ID:   id,
			Type: opts.Type,
		}

		err = c.Create(ctx, a)

		if err != nil {
			return assets, fmt.Errorf("Failed to create %s, %w", id, err)
		}

		logger.Info("Created asset", "id", id, "type", opts.Type)
		assets = append(assets, a)
	}

	return assets, nil
}

func makeParents(ctx context.Context, c catalog.Catalog, logger *slog.Logger, id string) error {

	for _, parent_id := range asset.Ancestors(id) {

		parent, err := c.Info(ctx, parent_id)

		if err == nil {

			if parent.Kind() != asset.Container {
				return fmt.Errorf("Can't create %s because %s is a %s", id, parent_id, parent.Type)
			}

			continue
		}

		if !catalog.IsNotFound(err) {
			return fmt.Errorf("Failed to retrieve %s, %w", parent_id, err)
		}

		folder := &asset.Asset{
			ID:   parent_id,
			Type: asset.Folder,
		}

		err = c.Create(ctx, folder)

		if err != nil {
			return fmt.Errorf("Failed to create parent folder %s, %w", parent_id, err)
		}

		logger.Debug("Created parent folder", "id", parent_id)
	}

	return nil
}
