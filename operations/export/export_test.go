package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/catalog/catalogtest"
	"github.com/sfomuseum/go-geetools/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gocloud.dev/blob/memblob"
)

const footprint = `{"type":"LinearRing","coordinates":[[-122.5,37.5],[-122.0,37.5],[-122.0,38.0],[-122.5,38.0],[-122.5,37.5]]}`

func seedCollection(t *testing.T) *catalog.BlobCatalog {

	t.Helper()

	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c,
		catalogtest.A("users/test/src", asset.ImageCollection),
		&asset.Asset{
			ID:         "users/test/src/LC08_001",
			Type:       asset.Image,
			Properties: []byte(`{"system:time_start":1395168394000,"CLOUD_COVER":4.5,"system:footprint":` + footprint + `}`),
		},
		&asset.Asset{
			ID:         "users/test/src/LC08_002",
			Type:       asset.Image,
			Properties: []byte(`{"system:time_start":1396377994000,"CLOUD_COVER":12}`),
		},
		catalogtest.A("users/test/src/LC08_003", asset.Image),
	)

	catalogtest.SeedData(t, c, "users/test/src/LC08_001", "B1.tif", []byte("one"))
	catalogtest.SeedData(t, c, "users/test/src/LC08_002", "B1.tif", []byte("two"))
	catalogtest.SeedData(t, c, "users/test/src/LC08_002", "B2.tif", []byte("two-b"))
	catalogtest.SeedData(t, c, "users/test/src/LC08_003", "B1.tif", []byte("three"))

	return c
}

func TestIsDataType(t *testing.T) {

	for _, ty := range []string{"float", "int", "byte", "double", "Uint8", "int8", "Uint16", "int16", "Uint32", "int32"} {
		assert.True(t, IsDataType(ty), ty)
	}

	assert.False(t, IsDataType("complex"))
	assert.False(t, IsDataType(""))
}

func TestToAsset(t *testing.T) {

	ctx := context.Background()
	c := seedCollection(t)

	tasks, err := ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		AssetPath:    "users/test/exports/dest",
		Create:       true,
		Workers:      2,
	})

	require.NoError(t, err)
	require.Len(t, tasks, 3)

	for _, task := range tasks {
		assert.Equal(t, StateCompleted, task.State, task.Source)
		assert.Equal(t, DefaultScale, task.Scale)
		require.NotNil(t, task.Region)
		assert.Equal(t, orb.Bound{Min: orb.Point{-122.5, 37.5}, Max: orb.Point{-122.0, 38.0}}, task.Region.Bound())
		assert.NotEmpty(t, task.ID)
	}

	assert.Equal(t, "users/test/exports/dest/LC08_002", tasks[1].Destination)
	require.Len(t, tasks[1].Outputs, 2)
	assert.Equal(t, "B2.tif", tasks[1].Outputs[1].Name)

	dest, err := c.Info(ctx, "users/test/exports/dest/LC08_002")
	require.NoError(t, err)
	assert.Equal(t, asset.Image, dest.Type)
	assert.Equal(t, "users/test/src/LC08_002", dest.Property("system:export_source").String())
	assert.Equal(t, int64(12), dest.Property("CLOUD_COVER").Int())
	assert.Equal(t, "Polygon", gjson.GetBytes(dest.Properties, "system:footprint.type").String())

	r, err := c.NewDataReader(ctx, "users/test/exports/dest/LC08_002", "B2.tif")
	require.NoError(t, err)

	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "two-b", string(body))

	tasks, err = ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		AssetPath:    "users/test/exports/dest",
		MaxImages:    2,
	})

	require.NoError(t, err)
	require.Len(t, tasks, 2)

	for _, task := range tasks {
		assert.Equal(t, StateSkipped, task.State)
	}

	tasks, err = ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		AssetPath:    "users/test/exports/dest",
		MaxImages:    1,
		Force:        true,
		Scale:        10,
	})

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, StateCompleted, tasks[0].State)

	dest, err = c.Info(ctx, "users/test/exports/dest/LC08_001")
	require.NoError(t, err)
	assert.Equal(t, float64(10), dest.Property("system:export_scale").Float())
}

func TestToAssetMissingDestination(t *testing.T) {

	ctx := context.Background()
	c := seedCollection(t)

	_, err := ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		AssetPath:    "users/test/exports/missing",
	})

	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))

	_, err = ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/src/LC08_001",
		AssetPath:    "users/test/exports/missing",
		Create:       true,
	})

	assert.Error(t, err)
}

func TestToAssetMaxImagesSkipsNonImages(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c,
		catalogtest.A("users/test/mixed", asset.ImageCollection),
		catalogtest.A("users/test/mixed/a_table", asset.FeatureCollection),
		catalogtest.A("users/test/mixed/b_img", asset.Image),
	)

	catalogtest.SeedData(t, c, "users/test/mixed/b_img", "B1.tif", []byte("b"))

	tasks, err := ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/mixed",
		AssetPath:    "users/test/exports/mixed",
		Create:       true,
		MaxImages:    1,
	})

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "users/test/mixed/b_img", tasks[0].Source)
	assert.Equal(t, StateCompleted, tasks[0].State)
}

func TestBucketKeys(t *testing.T) {
	assert.Equal(t, []string{"out/img.tif"}, BucketKeys("out/img", []string{"B1.TIF"}))
	assert.Equal(t, []string{"out/img_B1.tif", "out/img_B2.tif"}, BucketKeys("out/img", []string{"B1.tif", "B2.tif"}))
}

func TestToBucket(t *testing.T) {

	ctx := context.Background()
	c := seedCollection(t)

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	opts := &ToBucketOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		Bucket:       bucket,
		Folder:       "landsat",
		NamePattern:  "{id}_{system_date}",
		DataType:     "Uint16",
		MaxImages:    2,
	}

	tasks, err := ToBucket(ctx, opts)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "landsat/LC08_001_20140318", tasks[0].Destination)
	assert.Equal(t, "LC08_001_20140318", tasks[0].Description)
	assert.Equal(t, "Uint16", tasks[0].DataType)
	assert.Equal(t, StateCompleted, tasks[0].State)

	body, err := bucket.ReadAll(ctx, "landsat/LC08_001_20140318.tif")
	require.NoError(t, err)
	assert.Equal(t, "one", string(body))

	attrs, err := bucket.Attributes(ctx, "landsat/LC08_001_20140318.tif")
	require.NoError(t, err)
	assert.Equal(t, "users/test/src/LC08_001", attrs.Metadata["source"])
	assert.Equal(t, "Uint16", attrs.Metadata["data_type"])

	fp, err := common.FingerprintFile(ctx, bucket, "landsat/LC08_001_20140318.tif")
	require.NoError(t, err)
	require.Len(t, tasks[0].Outputs, 1)
	assert.Equal(t, fp, tasks[0].Outputs[0].Fingerprint)

	for _, k := range []string{"landsat/LC08_002_20140401_B1.tif", "landsat/LC08_002_20140401_B2.tif"} {
		exists, err := bucket.Exists(ctx, k)
		require.NoError(t, err)
		assert.True(t, exists, k)
	}

	tasks, err = ToBucket(ctx, opts)
	require.NoError(t, err)

	for _, task := range tasks {
		assert.Equal(t, StateSkipped, task.State)
	}

	opts.DataType = "complex"

	_, err = ToBucket(ctx, opts)
	assert.Error(t, err)
}

func TestToBucketNoData(t *testing.T) {

	ctx := context.Background()
	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c,
		catalogtest.A("users/test/src", asset.ImageCollection),
		catalogtest.A("users/test/src/empty", asset.Image),
	)

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	tasks, err := ToBucket(ctx, &ToBucketOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		Bucket:       bucket,
	})

	require.Error(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, StateFailed, tasks[0].State)
	assert.NotEmpty(t, tasks[0].Error)
}

func TestWriteManifest(t *testing.T) {

	ctx := context.Background()
	c := seedCollection(t)

	tasks, err := ToAsset(ctx, &ToAssetOptions{
		Catalog:      c,
		CollectionID: "users/test/src",
		AssetPath:    "users/test/exports/dest",
		Create:       true,
	})

	require.NoError(t, err)

	root := t.TempDir()

	err = WriteManifest(ctx, "fs://"+root, "manifest.geojson", tasks)
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(root, "manifest.geojson"))
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", gjson.GetBytes(body, "type").String())
	assert.Equal(t, int64(3), gjson.GetBytes(body, "features.#").Int())
	assert.Equal(t, "Polygon", gjson.GetBytes(body, "features.0.geometry.type").String())
	assert.Equal(t, tasks[0].ID, gjson.GetBytes(body, `features.0.properties.task\:id`).String())
	assert.Equal(t, "COMPLETED", gjson.GetBytes(body, `features.2.properties.task\:state`).String())
	assert.Equal(t, "users/test/exports/dest/LC08_003", gjson.GetBytes(body, `features.2.properties.asset\:id`).String())
}
