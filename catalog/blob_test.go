package catalog_test

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/catalog/catalogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobCatalogInfo(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	a := &asset.Asset{
		ID:         "/users/test/image/",
		Type:       asset.Image,
		Properties: []byte(`{"system:time_start":1546300800000,"cloud_cover":12.5}`),
	}

	require.NoError(t, c.Create(ctx, a))
	assert.Equal(t, "users/test/image", a.ID)

	info, err := c.Info(ctx, "users/test/image")
	require.NoError(t, err)

	assert.Equal(t, asset.Image, info.Type)
	assert.Equal(t, asset.Leaf, info.Kind())
	assert.Equal(t, int64(1546300800000), info.Property("system:time_start").Int())
	assert.Equal(t, 12.5, info.Property("cloud_cover").Float())

	_, err = c.Info(ctx, "users/test/missing")
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestBlobCatalogCreate(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	require.NoError(t, c.Create(ctx, catalogtest.A("users/test/folder", asset.Folder)))

	err := c.Create(ctx, catalogtest.A("users/test/folder", asset.Folder))
	assert.ErrorIs(t, err, catalog.ErrExists)

	// parents below the root folder must exist
	err = c.Create(ctx, catalogtest.A("users/test/nope/image", asset.Image))
	assert.True(t, catalog.IsNotFound(err))

	// parents must be containers
	require.NoError(t, c.Create(ctx, catalogtest.A("users/test/folder/image", asset.Image)))
	err = c.Create(ctx, catalogtest.A("users/test/folder/image/child", asset.Image))
	assert.ErrorIs(t, err, catalog.ErrNotContainer)

	err = c.Create(ctx, catalogtest.A("users/test/untyped", ""))
	assert.Error(t, err)

	err = c.Create(ctx, &asset.Asset{ID: "users/test/bad", Type: asset.Image, Properties: []byte(`[1,2]`)})
	assert.Error(t, err)

	err = c.Create(ctx, catalogtest.A("users/../test", asset.Folder))
	assert.Error(t, err)
}

func TestBlobCatalogList(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c,
		catalogtest.A("users/test/col", asset.ImageCollection),
		catalogtest.A("users/test/col/b", asset.Image),
		catalogtest.A("users/test/col/a", asset.Image),
		catalogtest.A("users/test/col/sub", asset.Folder),
	)

	catalogtest.SeedData(t, c, "users/test/col/a", "image.tif", []byte("pixels"))

	children, err := c.List(ctx, "users/test/col")
	require.NoError(t, err)

	ids := make([]string, len(children))

	for i, ch := range children {
		ids[i] = ch.ID
	}

	assert.Equal(t, []string{"users/test/col/a", "users/test/col/b", "users/test/col/sub"}, ids)
	assert.Equal(t, asset.Folder, children[2].Type)

	_, err = c.List(ctx, "users/test/col/a")
	assert.ErrorIs(t, err, catalog.ErrNotContainer)

	_, err = c.List(ctx, "users/test/missing")
	assert.True(t, catalog.IsNotFound(err))
}

func TestBlobCatalogDelete(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c,
		catalogtest.A("users/test/col", asset.ImageCollection),
		catalogtest.A("users/test/col/a", asset.Image),
		catalogtest.A("users/test/colour", asset.Image),
	)

	catalogtest.SeedData(t, c, "users/test/col/a", "image.tif", []byte("pixels"))

	err := c.Delete(ctx, "users/test/col")
	assert.ErrorIs(t, err, catalog.ErrNotEmpty)

	require.NoError(t, c.Delete(ctx, "users/test/col/a"))

	_, err = c.NewDataReader(ctx, "users/test/col/a", "image.tif")
	assert.True(t, catalog.IsNotFound(err))

	require.NoError(t, c.Delete(ctx, "users/test/col"))

	// sharing a prefix is not the same as being a child
	exists, err := catalog.Exists(ctx, c, "users/test/colour")
	require.NoError(t, err)
	assert.True(t, exists)

	err = c.Delete(ctx, "users/test/col")
	assert.True(t, catalog.IsNotFound(err))
}

func TestBlobCatalogData(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c, catalogtest.A("users/test/image", asset.Image))
	catalogtest.SeedData(t, c, "users/test/image", "b.tif", []byte("b"))
	catalogtest.SeedData(t, c, "users/test/image", "a.tif", []byte("a"))

	names, err := c.ListData(ctx, "users/test/image")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tif", "b.tif"}, names)

	r, err := c.NewDataReader(ctx, "users/test/image", "b.tif")
	require.NoError(t, err)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, []byte("b"), body)

	_, err = c.NewDataWriter(ctx, "users/test/image", catalog.DescriptionKey, nil)
	assert.Error(t, err)

	_, err = c.NewDataWriter(ctx, "users/test/missing", "a.tif", nil)
	assert.True(t, catalog.IsNotFound(err))
}

func TestNewCatalog(t *testing.T) {

	ctx := context.Background()

	c, err := catalog.NewCatalog(ctx, "mem://")
	require.NoError(t, err)

	defer c.Close()

	_, ok := c.(catalog.DataCatalog)
	assert.True(t, ok)

	assert.Contains(t, catalog.Schemes(), "mem://")
	assert.Contains(t, catalog.Schemes(), "file://")

	_, err = catalog.NewCatalog(ctx, "bogus://")
	assert.Error(t, err)

	_, err = catalog.NewCatalog(ctx, "no-scheme")
	assert.Error(t, err)
}

func TestNewCatalogFile(t *testing.T) {

	ctx := context.Background()
	root := t.TempDir()

	c, err := catalog.NewCatalog(ctx, "file://"+root)
	require.NoError(t, err)

	defer c.Close()

	catalogtest.Seed(t, c,
		catalogtest.A("users/test/folder", asset.Folder),
		catalogtest.A("users/test/folder/image", asset.Image),
	)

	children, err := c.List(ctx, "users/test/folder")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "users/test/folder/image", children[0].ID)
}

func TestRateLimitedCatalog(t *testing.T) {

	ctx := context.Background()

	rec := catalogtest.NewRecorder(catalogtest.NewBlobCatalog(t))
	c := catalog.NewRateLimitedCatalog(rec, 1000)

	require.NoError(t, c.Create(ctx, catalogtest.A("users/test/image", asset.Image)))

	_, err := c.Info(ctx, "users/test/image")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "users/test/image"))

	_, err = c.List(ctx, "users/test/image")
	assert.True(t, catalog.IsNotFound(err))

	assert.Equal(t, []catalogtest.Call{
		{Op: catalogtest.OpCreate, ID: "users/test/image"},
		{Op: catalogtest.OpInfo, ID: "users/test/image"},
		{Op: catalogtest.OpDelete, ID: "users/test/image"},
		{Op: catalogtest.OpList, ID: "users/test/image"},
	}, rec.Calls())
}

func TestRateLimitedDataCatalog(t *testing.T) {

	ctx := context.Background()

	var c catalog.DataCatalog = catalog.NewRateLimitedDataCatalog(catalogtest.NewBlobCatalog(t), 20)

	start := time.Now()

	require.NoError(t, c.Create(ctx, catalogtest.A("users/test/image", asset.Image)))

	wr, err := c.NewDataWriter(ctx, "users/test/image", "B1.tif", nil)
	require.NoError(t, err)

	_, err = wr.Write([]byte("band"))
	require.NoError(t, err)
	require.NoError(t, wr.Close())

	names, err := c.ListData(ctx, "users/test/image")
	require.NoError(t, err)
	assert.Equal(t, []string{"B1.tif"}, names)

	r, err := c.NewDataReader(ctx, "users/test/image", "B1.tif")
	require.NoError(t, err)

	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "band", string(body))

	_, err = c.ListData(ctx, "users/test/image")
	require.NoError(t, err)

	// Five requests at 20 per second are spaced at least 50ms apart.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestBlobCatalogHasNoEmbeddedFields(t *testing.T) {

	ty := reflect.TypeOf(catalog.BlobCatalog{})

	for i := 0; i < ty.NumField(); i++ {
		assert.False(t, ty.Field(i).Anonymous, ty.Field(i).Name)
	}

	var c catalog.DataCatalog = catalogtest.NewBlobCatalog(t)

	_, err := c.ListData(context.Background(), "users/test/missing")
	assert.True(t, catalog.IsNotFound(err))
}
