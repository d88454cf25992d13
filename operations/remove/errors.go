package remove

import (
	"fmt"

	"github.com/sfomuseum/go-geetools/asset"
)

// Catalog operations reported by CatalogQueryError.
const (
	OpInfo   = "info"
	OpList   = "list"
	OpDelete = "delete"
)

// NotFoundError is returned when an asset does not exist in the catalog. No delete calls are made for it.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s does not exist or there is another problem", e.ID)
}

// UnsupportedTypeError is returned when an asset's type is neither a leaf nor a container. The asset
// and its ancestors are not deleted.
type UnsupportedTypeError struct {
	ID   string
	Type asset.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Can't handle %s (%s) type yet", e.ID, e.Type)
}

// CatalogQueryError is returned when a call to the catalog fails.
type CatalogQueryError struct {
	ID  string
	Op  string
	Err error
}

func (e *CatalogQueryError) Error() string {
	return fmt.Sprintf("Failed to %s %s, %v", e.Op, e.ID, e.Err)
}

func (e *CatalogQueryError) Unwrap() error {
	return e.Err
}
