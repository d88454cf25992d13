package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
)

// CatalogLookerUpper populates lookup tables from an asset, and all its descendants, in a catalog.
type CatalogLookerUpper struct {
	LookerUpper
	catalog catalog.Catalog
	id      string
}

func NewCatalogLookerUpper(ctx context.Context, c catalog.Catalog, id string) (LookerUpper, error) {

	if c == nil {
		return nil, errors.New("Missing catalog")
	}

	id, err := asset.Clean(id)

	if err != nil {
		return nil, err
	}

	l := &CatalogLookerUpper{
		catalog: c,
		id:      id,
	}

	return l, nil
}

func (l *CatalogLookerUpper) Append(ctx context.Context, lu *sync.Map, append_funcs ...AppendLookupFunc) error {

	a, err := l.catalog.Info(ctx, l.id)

	if err != nil {
		return fmt.Errorf("Failed to retrieve %s, %w", l.id, err)
	}

	var walk func(context.Context, *asset.Asset) error

	walk = func(ctx context.Context, a *asset.Asset) error {

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			// pass
		}

		if a.Kind() != asset.Container {
			return appendAsset(ctx, lu, a, append_funcs...)
		}

		children, err := l.catalog.List(ctx, a.ID)

		if err != nil {
			return fmt.Errorf("Failed to list %s, %w", a.ID, err)
		}

		for _, child := range children {

			err := walk(ctx, child)

			if err != nil {
				return err
			}
		}

		return nil
	}

	return walk(ctx, a)
}
