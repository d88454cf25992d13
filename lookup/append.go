package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sfomuseum/go-geetools/asset"
)

// DuplicateKeyError is returned when a lookup key is already associated with a different asset.
type DuplicateKeyError struct {
	Key      string
	Existing string
	ID       string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("Existing key %s for %s (%s)", e.Key, e.Existing, e.ID)
}

// FingerprintAppendLookupFunc maps the "fingerprint" property of an asset to its ID.
func FingerprintAppendLookupFunc(ctx context.Context, lu *sync.Map, a *asset.Asset) error {
	return appendProperty(lu, a, "fingerprint")
}

// FirstFingerprintAppendLookupFunc maps the "fingerprint" property of an asset to its ID. Unlike
// FingerprintAppendLookupFunc a fingerprint already associated with a different asset is not an error;
// the first asset recorded for a fingerprint is kept.
func FirstFingerprintAppendLookupFunc(ctx context.Context, lu *sync.Map, a *asset.Asset) error {

	err := appendProperty(lu, a, "fingerprint")

	var dupe *DuplicateKeyError

	if errors.As(err, &dupe) {
		slog.Warn("Fingerprint is shared by more than one asset", "fingerprint", dupe.Key, "existing", dupe.Existing, "id", dupe.ID)
		return nil
	}

	return err
}

// SourceAppendLookupFunc maps the "source" property of an asset to its ID.
func SourceAppendLookupFunc(ctx context.Context, lu *sync.Map, a *asset.Asset) error {
	return appendProperty(lu, a, "source")
}

func appendProperty(lu *sync.Map, a *asset.Asset, key string) error {

	rsp := a.Property(key)

	if !rsp.Exists() {
		slog.Debug("Asset is missing lookup property", "id", a.ID, "property", key)
		return nil
	}

	k := rsp.String()

	existing, exists := lu.LoadOrStore(k, a.ID)

	if exists && existing.(string) != a.ID {
		return &DuplicateKeyError{Key: k, Existing: existing.(string), ID: a.ID}
	}

	return nil
}
