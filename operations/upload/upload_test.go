package upload

import (
	"context"
	"io"
	"testing"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog/catalogtest"
	"github.com/sfomuseum/go-geetools/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func ids(assets []*asset.Asset) []string {

	ids := make([]string, len(assets))

	for i, a := range assets {
		ids[i] = a.ID
	}

	return ids
}

func TestUploadImages(t *testing.T) {

	ctx := context.Background()

	source := memblob.OpenBucket(nil)
	defer source.Close()

	files := map[string]string{
		"2024/photo one.png": "not really a png",
		"2024/notes.txt":     "ignored",
		"scan.TIF":           "not really a tiff",
	}

	for k, v := range files {
		require.NoError(t, source.WriteAll(ctx, k, []byte(v), nil))
	}

	c := catalogtest.NewBlobCatalog(t)

	opts := &UploadImagesOptions{
		Create:  true,
		Workers: 2,
	}

	uploaded, err := UploadImages(ctx, source, c, "users/test/uploads/col", opts)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users/test/uploads/col/photo_one", "users/test/uploads/col/scan"}, ids(uploaded))

	col, err := c.Info(ctx, "users/test/uploads/col")
	require.NoError(t, err)
	assert.Equal(t, asset.ImageCollection, col.Type)

	img, err := c.Info(ctx, "users/test/uploads/col/photo_one")
	require.NoError(t, err)
	assert.Equal(t, asset.Image, img.Type)
	assert.Equal(t, "image/png", img.Property("mimetype").String())
	assert.Equal(t, "2024/photo one.png", img.Property("source").String())

	fp, err := common.FingerprintFile(ctx, source, "2024/photo one.png")
	require.NoError(t, err)
	assert.Equal(t, fp, img.Property("fingerprint").String())

	names, err := c.ListData(ctx, "users/test/uploads/col/scan")
	require.NoError(t, err)
	assert.Equal(t, []string{"image.tif"}, names)

	r, err := c.NewDataReader(ctx, "users/test/uploads/col/scan", "image.tif")
	require.NoError(t, err)

	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "not really a tiff", string(body))

	uploaded, err = UploadImages(ctx, source, c, "users/test/uploads/col", &UploadImagesOptions{})
	require.NoError(t, err)
	assert.Empty(t, uploaded)

	uploaded, err = UploadImages(ctx, source, c, "users/test/uploads/col", &UploadImagesOptions{Force: true})
	require.NoError(t, err)
	assert.Len(t, uploaded, 2)
}

func TestUploadImagesMissingCollection(t *testing.T) {

	ctx := context.Background()

	source := memblob.OpenBucket(nil)
	defer source.Close()

	c := catalogtest.NewBlobCatalog(t)

	_, err := UploadImages(ctx, source, c, "users/test/missing", &UploadImagesOptions{})
	assert.Error(t, err)

	catalogtest.Seed(t, c, catalogtest.A("users/test/folder", asset.Folder))

	_, err = UploadImages(ctx, source, c, "users/test/folder", &UploadImagesOptions{})
	assert.Error(t, err)
}

func TestImageID(t *testing.T) {

	tests := map[string]string{
		"a/b/photo one.jpg":  "users/test/col/photo_one",
		"IMG-0001.JPG":       "users/test/col/IMG-0001",
		"x/y/z.tif":          "users/test/col/z",
		"scans/(copy) 2.png": "users/test/col/copy_2",
	}

	for path, expected := range tests {

		id, err := ImageID("users/test/col", path)
		require.NoError(t, err, path)
		assert.Equal(t, expected, id, path)
	}

	_, err := ImageID("users/test/col", "a/%%%.png")
	assert.Error(t, err)
}

func TestUploadImagesSkipDuplicates(t *testing.T) {

	ctx := context.Background()

	source := memblob.OpenBucket(nil)
	defer source.Close()

	require.NoError(t, source.WriteAll(ctx, "a.png", []byte("same"), nil))
	require.NoError(t, source.WriteAll(ctx, "b.png", []byte("same"), nil))
	require.NoError(t, source.WriteAll(ctx, "c.png", []byte("different"), nil))

	c := catalogtest.NewBlobCatalog(t)

	opts := &UploadImagesOptions{
		Create:         true,
		SkipDuplicates: true,
	}

	uploaded, err := UploadImages(ctx, source, c, "users/test/col", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"users/test/col/a", "users/test/col/c"}, ids(uploaded))

	require.NoError(t, source.WriteAll(ctx, "d.png", []byte("different"), nil))

	uploaded, err = UploadImages(ctx, source, c, "users/test/col", opts)
	require.NoError(t, err)
	assert.Empty(t, uploaded)
}

func TestUploadImagesSkipDuplicatesSharedFingerprint(t *testing.T) {

	ctx := context.Background()

	source := memblob.OpenBucket(nil)
	defer source.Close()

	require.NoError(t, source.WriteAll(ctx, "new.png", []byte("new"), nil))

	c := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, c,
		catalogtest.A("users/test", asset.Folder),
		catalogtest.A("users/test/col", asset.ImageCollection),
		&asset.Asset{ID: "users/test/col/a", Type: asset.Image, Properties: []byte(`{"fingerprint":"same"}`)},
		&asset.Asset{ID: "users/test/col/b", Type: asset.Image, Properties: []byte(`{"fingerprint":"same"}`)},
	)

	uploaded, err := UploadImages(ctx, source, c, "users/test/col", &UploadImagesOptions{SkipDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"users/test/col/new"}, ids(uploaded))
}
