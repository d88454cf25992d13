package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {

	t.Helper()

	out := new(bytes.Buffer)

	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)

	err := Execute()
	return out.String(), err
}

func TestCreateListDelete(t *testing.T) {

	catalog_uri := "file://" + t.TempDir()

	out, err := run(t, "create", "--catalog", catalog_uri, "--type", "ImageCollection", "--parents", "users/test/a/col")
	require.NoError(t, err)
	assert.Equal(t, "users/test/a/col\tImageCollection\n", out)

	out, err = run(t, "ls", "--catalog", catalog_uri, "users/test/a")
	require.NoError(t, err)
	assert.Equal(t, "users/test/a/col\tImageCollection\n", out)

	out, err = run(t, "info", "--catalog", catalog_uri, "users/test/a/col")
	require.NoError(t, err)
	assert.Contains(t, out, `"asset:type":"ImageCollection"`)

	out, err = run(t, "delete", "--catalog", catalog_uri, "--rate", "100", "users/test/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/test/a/col", "users/test/a"}, strings.Fields(out))

	_, err = run(t, "info", "--catalog", catalog_uri, "users/test/a")
	assert.Error(t, err)
}

func TestMissingCatalog(t *testing.T) {

	_, err := run(t, "ls", "--catalog", "", "users/test/a")
	assert.Error(t, err)
}

func TestUploadGatherExport(t *testing.T) {

	catalog_root := t.TempDir()
	photos_root := t.TempDir()
	exports_root := t.TempDir()

	catalog_uri := "file://" + catalog_root
	photos_uri := "file://" + photos_root
	exports_uri := "file://" + exports_root

	require.NoError(t, os.WriteFile(filepath.Join(photos_root, "a.png"), []byte("one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos_root, "b.tif"), []byte("two"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos_root, "notes.txt"), []byte("ignored"), 0644))

	out, err := run(t, "gather", photos_uri)
	require.NoError(t, err)

	paths := make(map[string]string)

	dec := json.NewDecoder(strings.NewReader(out))

	for dec.More() {

		var rsp struct {
			Path     string
			MimeType string
		}

		require.NoError(t, dec.Decode(&rsp))
		paths[rsp.Path] = rsp.MimeType
	}

	assert.Equal(t, map[string]string{"a.png": "image/png", "b.tif": "image/tiff"}, paths)

	out, err = run(t, "upload", "--catalog", catalog_uri, "--rate", "100", "--create", photos_uri, "users/test/col")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users/test/col/a", "users/test/col/b"}, strings.Fields(out))

	out, err = run(t, "ls", "--catalog", catalog_uri, "users/test/col")
	require.NoError(t, err)
	assert.Equal(t, "users/test/col/a\tImage\nusers/test/col/b\tImage\n", out)

	out, err = run(t, "export-asset", "--catalog", catalog_uri, "users/test/col", "users/test/exports/col")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	for _, ln := range lines {
		assert.Equal(t, "COMPLETED", strings.Split(ln, "\t")[1], ln)
	}

	out, err = run(t, "info", "--catalog", catalog_uri, "users/test/exports/col/a")
	require.NoError(t, err)
	assert.Contains(t, out, `"asset:type":"Image"`)

	out, err = run(t, "export-bucket", "--catalog", catalog_uri, "--folder", "out", "--name", "{id}", "users/test/col", exports_uri)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	body, err := os.ReadFile(filepath.Join(exports_root, "out", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(body))

	body, err = os.ReadFile(filepath.Join(exports_root, "out", "b.tif"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(body))
}

func TestUploadMissingCollection(t *testing.T) {

	_, err := run(t, "upload", "--catalog", "file://"+t.TempDir(), "--create=false", "file://"+t.TempDir(), "users/test/missing")
	assert.Error(t, err)
}
