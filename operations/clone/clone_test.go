package clone

import (
	"context"
	"io"
	"testing"

	"github.com/sfomuseum/go-geetools/asset"
	"github.com/sfomuseum/go-geetools/catalog"
	"github.com/sfomuseum/go-geetools/catalog/catalogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneData(t *testing.T) {

	ctx := context.Background()

	source := catalogtest.NewBlobCatalog(t)
	target := catalogtest.NewBlobCatalog(t)

	catalogtest.Seed(t, source, catalogtest.A("users/src/image", asset.Image))
	catalogtest.SeedData(t, source, "users/src/image", "B1.tif", []byte("band one"))
	catalogtest.SeedData(t, source, "users/src/image", "B2.tif", []byte("band two"))

	catalogtest.Seed(t, target, catalogtest.A("users/dest/image", asset.Image))

	names, err := CloneData(ctx, &CloneDataOptions{
		Source:   source,
		Target:   target,
		SourceID: "users/src/image",
		TargetID: "users/dest/image",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"B1.tif", "B2.tif"}, names)

	r, err := target.NewDataReader(ctx, "users/dest/image", "B2.tif")
	require.NoError(t, err)

	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "band two", string(body))
}

func TestCloneDataMissingTarget(t *testing.T) {

	ctx := context.Background()

	source := catalogtest.NewBlobCatalog(t)
	catalogtest.Seed(t, source, catalogtest.A("users/src/image", asset.Image))
	catalogtest.SeedData(t, source, "users/src/image", "B1.tif", []byte("band one"))

	_, err := CloneData(ctx, &CloneDataOptions{
		Source:     source,
		Target:     source,
		SourceID:   "users/src/image",
		TargetID:   "users/src/missing",
		MaxRetries: 5,
	})

	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestCloneDataMissingCatalog(t *testing.T) {
	_, err := CloneData(context.Background(), &CloneDataOptions{})
	assert.Error(t, err)
}
