// Package catalog defines the interface for the remote asset catalog that operations are
// performed against, along with a registry of catalog implementations keyed by URI scheme.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aaronland/go-roster"
	"github.com/sfomuseum/go-geetools/asset"
	"gocloud.dev/blob"
)

var (
	// ErrNotFound is returned (wrapped) when an asset does not exist.
	ErrNotFound = errors.New("asset not found")
	// ErrExists is returned (wrapped) when creating an asset that already exists.
	ErrExists = errors.New("asset already exists")
	// ErrNotEmpty is returned (wrapped) when deleting a container that still has children.
	ErrNotEmpty = errors.New("container is not empty")
	// ErrNotContainer is returned (wrapped) when listing, or creating children in, an asset that is not a container.
	ErrNotContainer = errors.New("asset is not a container")
)

// IsNotFound reports whether err indicates a missing asset.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Catalog is the remote asset catalog. Implementations are explicit client handles; there is no global session.
type Catalog interface {
	// Info returns the asset with identifier id. Missing assets yield an error satisfying IsNotFound.
	Info(context.Context, string) (*asset.Asset, error)
	// List returns the immediate children of a container.
	List(context.Context, string) ([]*asset.Asset, error)
	// Delete removes a single asset. Containers must be empty.
	Delete(context.Context, string) error
	// Create creates a new asset. Its parent, if not a root folder, must exist and be a container.
	Create(context.Context, *asset.Asset) error
	// Close releases any resources held by the catalog.
	Close() error
}

// DataCatalog is a Catalog that also stores the payload (pixel data, tables) for its assets.
type DataCatalog interface {
	Catalog
	// ListData returns the names of the payload files for an asset.
	ListData(context.Context, string) ([]string, error)
	// NewDataReader opens a payload file for an asset.
	NewDataReader(context.Context, string, string) (io.ReadCloser, error)
	// NewDataWriter creates (or replaces) a payload file for an existing asset.
	NewDataWriter(context.Context, string, string, *blob.WriterOptions) (io.WriteCloser, error)
}

// CatalogInitializationFunc is a function used to create a new Catalog instance from a URI.
type CatalogInitializationFunc func(ctx context.Context, uri string) (Catalog, error)

var catalog_roster roster.Roster

// RegisterCatalog associates a URI scheme with a CatalogInitializationFunc.
func RegisterCatalog(ctx context.Context, scheme string, init_func CatalogInitializationFunc) error {

	err := ensureCatalogRoster()

	if err != nil {
		return err
	}

	return catalog_roster.Register(ctx, scheme, init_func)
}

func ensureCatalogRoster() error {

	if catalog_roster == nil {

		r, err := roster.NewDefaultRoster()

		if err != nil {
			return fmt.Errorf("Failed to create catalog roster, %w", err)
		}

		catalog_roster = r
	}

	return nil
}

// NewCatalog returns a new Catalog instance for uri. Schemes that haven't been registered
// explicitly but are valid gocloud.dev/blob bucket schemes are opened as a BlobCatalog.
func NewCatalog(ctx context.Context, uri string) (Catalog, error) {

	u, err := url.Parse(uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to parse catalog URI, %w", err)
	}

	scheme := u.Scheme

	if scheme == "" {
		return nil, fmt.Errorf("Catalog URI '%s' is missing a scheme", uri)
	}

	err = ensureCatalogRoster()

	if err != nil {
		return nil, err
	}

	i, err := catalog_roster.Driver(ctx, scheme)

	if err != nil {

		if blob.DefaultURLMux().ValidBucketScheme(scheme) {
			return NewBlobCatalog(ctx, uri)
		}

		return nil, fmt.Errorf("Unsupported catalog scheme '%s', %w", scheme, err)
	}

	init_func := i.(CatalogInitializationFunc)
	return init_func(ctx, uri)
}

// Schemes returns the list of schemes that have been registered.
func Schemes() []string {

	ctx := context.Background()
	schemes := []string{}

	err := ensureCatalogRoster()

	if err != nil {
		return schemes
	}

	for _, dr := range catalog_roster.Drivers(ctx) {
		scheme := fmt.Sprintf("%s://", strings.ToLower(dr))
		schemes = append(schemes, scheme)
	}

	sort.Strings(schemes)
	return schemes
}

// Exists reports whether the asset id exists in c.
func Exists(ctx context.Context, c Catalog, id string) (bool, error) {

	_, err := c.Info(ctx, id)

	if err != nil {

		if IsNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
