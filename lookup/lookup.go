// Package lookup builds lookup tables (for example image fingerprints to asset IDs) from existing assets.
package lookup

import (
	"context"
	"sync"

	"github.com/sfomuseum/go-geetools/asset"
	"golang.org/x/sync/errgroup"
)

// AppendLookupFunc adds zero or more entries derived from an asset to a lookup table.
type AppendLookupFunc func(context.Context, *sync.Map, *asset.Asset) error

// LookerUpper is the interface for sources of assets used to populate lookup tables.
type LookerUpper interface {
	Append(context.Context, *sync.Map, ...AppendLookupFunc) error
}

// NewLookupMap returns a new lookup table populated by each of looker_uppers, concurrently, using append_funcs.
func NewLookupMap(ctx context.Context, looker_uppers []LookerUpper, append_funcs []AppendLookupFunc) (*sync.Map, error) {

	lu := new(sync.Map)

	g, g_ctx := errgroup.WithContext(ctx)

	for _, l := range looker_uppers {

		g.Go(func() error {
			return l.Append(g_ctx, lu, append_funcs...)
		})
	}

	err := g.Wait()

	if err != nil {
		return nil, err
	}

	return lu, nil
}

func appendAsset(ctx context.Context, lu *sync.Map, a *asset.Asset, append_funcs ...AppendLookupFunc) error {

	for _, f := range append_funcs {

		err := f(ctx, lu, a)

		if err != nil {
			return err
		}
	}

	return nil
}
