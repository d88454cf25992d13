package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// DescriptionKey is the name of the JSON document, stored under an asset's prefix, that describes the asset.
const DescriptionKey = "asset.json"

func init() {

	ctx := context.Background()

	for _, scheme := range []string{"mem", "file"} {

		err := RegisterCatalog(ctx, scheme, NewBlobCatalog)

		if err != nil {
			panic(err)
		}
	}
}

var _ DataCatalog = (*BlobCatalog)(nil)

// BlobCatalog implements the Catalog and DataCatalog interfaces on top of a gocloud.dev/blob.Bucket.
// The asset "a/b/c" is stored under the key prefix "a/b/c/" : its description lives in
// "a/b/c/asset.json" and its payload files live alongside it. Child assets are the
// "directories" under that prefix which have a description of their own.
type BlobCatalog struct {
	bucket *blob.Bucket
	owned  bool
}

// NewBlobCatalog returns a new BlobCatalog for a gocloud.dev/blob bucket URI.
func NewBlobCatalog(ctx context.Context, uri string) (Catalog, error) {

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to open bucket for %s, %w", uri, err)
	}

	c, err := NewBlobCatalogWithBucket(ctx, bucket)

	if err != nil {
		bucket.Close()
		return nil, err
	}

	c.owned = true
	return c, nil
}

// NewBlobCatalogWithBucket returns a new BlobCatalog for an existing bucket. The bucket is not closed by the catalog's Close method.
func NewBlobCatalogWithBucket(ctx context.Context, bucket *blob.Bucket) (*BlobCatalog, error) {

	if bucket == nil {
		return nil, errors.New("Missing bucket")
	}

	c := &BlobCatalog{
		bucket: bucket,
	}

	return c, nil
}

func (c *BlobCatalog) Info(ctx context.Context, id string) (*asset.Asset, error) {

	id, err := asset.Clean(id)

	if err != nil {
		return nil, err
	}

	key := descriptionKey(id)

	body, err := c.bucket.ReadAll(ctx, key)

	if err != nil {

		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return nil, fmt.Errorf("Failed to read description for %s, %w", id, err)
	}

	return parseDescription(id, body)
}

func (c *BlobCatalog) List(ctx context.Context, id string) ([]*asset.Asset, error) {

	parent, err := c.Info(ctx, id)

	if err != nil {
		return nil, err
	}

	if parent.Kind() != asset.Container {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotContainer, parent.ID, parent.Type)
	}

	iter := c.bucket.List(&blob.ListOptions{
		Prefix:    parent.ID + "/",
		Delimiter: "/",
	})

	children := make([]*asset.Asset, 0)

	for {
		obj, err := iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("Failed to list children of %s, %w", parent.ID, err)
		}

		if !obj.IsDir {
			continue
		}

		child_id := strings.TrimSuffix(obj.Key, "/")

		child, err := c.Info(ctx, child_id)

		if err != nil {

			// a "directory" without a description is not an asset
			if IsNotFound(err) {
				continue
			}

			return nil, err
		}

		children = append(children, child)
	}

	return children, nil
}

func (c *BlobCatalog) Delete(ctx context.Context, id string) error {

	a, err := c.Info(ctx, id)

	if err != nil {
		return err
	}

	if a.Kind() == asset.Container {

		children, err := c.List(ctx, a.ID)

		if err != nil {
			return err
		}

		if len(children) > 0 {
			return fmt.Errorf("%w: %s has %d children", ErrNotEmpty, a.ID, len(children))
		}
	}

	iter := c.bucket.List(&blob.ListOptions{
		Prefix: a.ID + "/",
	})

	desc_key := descriptionKey(a.ID)
	keys := make([]string, 0)

	for {
		obj, err := iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("Failed to list keys for %s, %w", a.ID, err)
		}

		if obj.Key == desc_key {
			continue
		}

		keys = append(keys, obj.Key)
	}

	// the description goes last so that a partially deleted asset can still be found, and deleted again

	keys = append(keys, desc_key)

	for _, k := range keys {

		err := c.bucket.Delete(ctx, k)

		if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return fmt.Errorf("Failed to delete %s, %w", k, err)
		}
	}

	return nil
}

func (c *BlobCatalog) Create(ctx context.Context, a *asset.Asset) error {

	id, err := asset.Clean(a.ID)

	if err != nil {
		return err
	}

	if a.Type == "" {
		return fmt.Errorf("Missing type for %s", id)
	}

	parent_id := asset.Parent(id)

	if parent_id != "" {

		parent, err := c.Info(ctx, parent_id)

		switch {
		case err == nil:

			if parent.Kind() != asset.Container {
				return fmt.Errorf("%w: parent %s is a %s", ErrNotContainer, parent.ID, parent.Type)
			}

		case IsNotFound(err):

			if !asset.IsRoot(parent_id) {
				return fmt.Errorf("Parent of %s does not exist, %w", id, err)
			}

		default:
			return err
		}
	}

	key := descriptionKey(id)

	exists, err := c.bucket.Exists(ctx, key)

	if err != nil {
		return fmt.Errorf("Failed to determine whether %s exists, %w", id, err)
	}

	if exists {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}

	body, err := newDescription(id, a.Type, a.Properties)

	if err != nil {
		return fmt.Errorf("Failed to create description for %s, %w", id, err)
	}

	err = c.bucket.WriteAll(ctx, key, body, &blob.WriterOptions{
		ContentType: "application/json",
	})

	if err != nil {
		return fmt.Errorf("Failed to write description for %s, %w", id, err)
	}

	a.ID = id
	return nil
}

func (c *BlobCatalog) ListData(ctx context.Context, id string) ([]string, error) {

	a, err := c.Info(ctx, id)

	if err != nil {
		return nil, err
	}

	prefix := a.ID + "/"

	iter := c.bucket.List(&blob.ListOptions{
		Prefix:    prefix,
		Delimiter: "/",
	})

	names := make([]string, 0)

	for {
		obj, err := iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("Failed to list data for %s, %w", a.ID, err)
		}

		if obj.IsDir {
			continue
		}

		name := strings.TrimPrefix(obj.Key, prefix)

		if name == DescriptionKey {
			continue
		}

		names = append(names, name)
	}

	return names, nil
}

func (c *BlobCatalog) NewDataReader(ctx context.Context, id string, name string) (io.ReadCloser, error) {

	key, err := dataKey(id, name)

	if err != nil {
		return nil, err
	}

	r, err := c.bucket.NewReader(ctx, key, nil)

	if err != nil {

		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("Failed to open %s for reading, %w", key, err)
	}

	return r, nil
}

func (c *BlobCatalog) NewDataWriter(ctx context.Context, id string, name string, opts *blob.WriterOptions) (io.WriteCloser, error) {

	key, err := dataKey(id, name)

	if err != nil {
		return nil, err
	}

	_, err = c.Info(ctx, id)

	if err != nil {
		return nil, err
	}

	wr, err := c.bucket.NewWriter(ctx, key, opts)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for writing, %w", key, err)
	}

	return wr, nil
}

func (c *BlobCatalog) Close() error {

	if !c.owned {
		return nil
	}

	return c.bucket.Close()
}

func descriptionKey(id string) string {
	return id + "/" + DescriptionKey
}

func dataKey(id string, name string) (string, error) {

	id, err := asset.Clean(id)

	if err != nil {
		return "", err
	}

	if name == "" || name == DescriptionKey || strings.Contains(name, "/") {
		return "", fmt.Errorf("Invalid data name '%s'", name)
	}

	return id + "/" + name, nil
}

func newDescription(id string, t asset.Type, props []byte) ([]byte, error) {

	body := []byte(`{}`)

	updates := map[string]interface{}{
		"id":          id,
		"type":        string(t),
		"update_time": time.Now().UTC().Format(time.RFC3339),
	}

	var err error

	for path, value := range updates {

		body, err = sjson.SetBytes(body, path, value)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign %s property, %w", path, err)
		}
	}

	if len(props) > 0 {

		if !gjson.ValidBytes(props) || !gjson.ParseBytes(props).IsObject() {
			return nil, errors.New("Properties must be a JSON object")
		}

		body, err = sjson.SetRawBytes(body, "properties", props)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign properties, %w", err)
		}
	}

	return body, nil
}

func parseDescription(id string, body []byte) (*asset.Asset, error) {

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("Invalid description for %s", id)
	}

	type_rsp := gjson.GetBytes(body, "type")

	if !type_rsp.Exists() {
		return nil, fmt.Errorf("Description for %s is missing type", id)
	}

	a := &asset.Asset{
		ID:   id,
		Type: asset.Type(type_rsp.String()),
	}

	props_rsp := gjson.GetBytes(body, "properties")

	if props_rsp.Exists() && props_rsp.IsObject() {
		a.Properties = []byte(props_rsp.Raw)
	}

	return a, nil
}
