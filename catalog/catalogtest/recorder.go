// Package catalogtest provides helpers for testing code that talks to a catalog.Catalog.
package catalogtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"gocloud.dev/blob/memblob"
)

// Operation names recorded by Recorder.
const (
	OpInfo   = "info"
	OpList   = "list"
	OpDelete = "delete"
	OpCreate = "create"
)

// Call is a single call made to a Recorder.
type Call struct {
	Op string
	ID string
}

// Recorder wraps a catalog.Catalog and records every call made to it. Errors can be injected per operation and asset ID.
type Recorder struct {
	catalog catalog.Catalog
	mu      sync.Mutex
	calls   []Call
	// Errors returned by List, keyed by asset ID.
	ListErrors map[string]error
	// Errors returned by Delete, keyed by asset ID.
	DeleteErrors map[string]error
}

// NewRecorder returns a Recorder wrapping c.
func NewRecorder(c catalog.Catalog) *Recorder {

	return &Recorder{
		catalog:      c,
		calls:        make([]Call, 0),
		ListErrors:   make(map[string]error),
		DeleteErrors: make(map[string]error),
	}
}

func (r *Recorder) record(op string, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: op, ID: id})
}

func (r *Recorder) Info(ctx context.Context, id string) (*asset.Asset, error) {
	r.record(OpInfo, id)
	return r.catalog.Info(ctx, id)
}

func (r *Recorder) List(ctx context.Context, id string) ([]*asset.Asset, error) {

	r.record(OpList, id)

	err, ok := r.ListErrors[id]

	if ok {
		return nil, err
	}

	return r.catalog.List(ctx, id)
}

func (r *Recorder) Delete(ctx context.Context, id string) error {

	r.record(OpDelete, id)

	err, ok := r.DeleteErrors[id]

	if ok {
		return err
	}

	return r.catalog.Delete(ctx, id)
}

func (r *Recorder) Create(ctx context.Context, a *asset.Asset) error {
	r.record(OpCreate, a.ID)
	return r.catalog.Create(ctx, a)
}

func (r *Recorder) Close() error {
	return r.catalog.Close()
}

// Calls returns a copy of every call recorded so far.
func (r *Recorder) Calls() []Call {

	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// IDs returns the asset IDs, in order, of every recorded call for op.
func (r *Recorder) IDs(op string) []string {

	ids := make([]string, 0)

	for _, c := range r.Calls() {
		if c.Op == op {
			ids = append(ids, c.ID)
		}
	}

	return ids
}

// Count returns the number of recorded calls for op.
func (r *Recorder) Count(op string) int {
	return len(r.IDs(op))
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = make([]Call, 0)
}

// NewBlobCatalog returns an in-memory catalog.BlobCatalog that is closed when the test completes.
func NewBlobCatalog(t testing.TB) *catalog.BlobCatalog {

	t.Helper()

	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)

	c, err := catalog.NewBlobCatalogWithBucket(ctx, bucket)

	if err != nil {
		t.Fatalf("Failed to create catalog, %v", err)
	}

	t.Cleanup(func() {
		bucket.Close()
	})

	return c
}

// Seed creates each asset in c, in order, failing the test on error.
func Seed(t testing.TB, c catalog.Catalog, assets ...*asset.Asset) {

	t.Helper()

	ctx := context.Background()

	for _, a := range assets {

		err := c.Create(ctx, a)

		if err != nil {
			t.Fatalf("Failed to seed %s, %v", a.ID, err)
		}
	}
}

// SeedData writes a payload file for an existing asset, failing the test on error.
func SeedData(t testing.TB, c catalog.DataCatalog, id string, name string, body []byte) {

	t.Helper()

	ctx := context.Background()

	wr, err := c.NewDataWriter(ctx, id, name, nil)

	if err != nil {
		t.Fatalf("Failed to create writer for %s/%s, %v", id, name, err)
	}

	_, err = wr.Write(body)

	if err != nil {
		t.Fatalf("Failed to write %s/%s, %v", id, name, err)
	}

	err = wr.Close()

	if err != nil {
		t.Fatalf("Failed to close writer for %s/%s, %v", id, name, err)
	}
}

// A is shorthand for creating a new asset.Asset.
func A(id string, t asset.Type) *asset.Asset {
	return &asset.Asset{ID: id, Type: t}
}

// String returns a short description of a call, useful in test failure messages.
func (c Call) String() string {
	return fmt.Sprintf("%s(%s)", c.Op, c.ID)
}
