package imgstage

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/imgstage/internal/testutil"
)

func TestProcessLayer(t *testing.T) {
	t.Parallel()

	const imageName = "team/app"

	writeLayer := func(t *testing.T, sourceDir string, content []byte) string {
		t.Helper()
		rel := filepath.Join(testutil.HexDigest(content), "layer.tar")
		require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, testutil.HexDigest(content)), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, rel), content, 0o640))
		return filepath.ToSlash(rel)
	}

	t.Run("digest round-trip", func(t *testing.T) {
		t.Parallel()
		sourceDir, destRoot := t.TempDir(), t.TempDir()
		require.NoError(t, PrepareLayout(destRoot, imageName))

		content := make([]byte, 256<<10)
		_, err := rand.Read(content)
		require.NoError(t, err)
		layerPath := writeLayer(t, sourceDir, content)

		desc, err := ProcessLayer(sourceDir, destRoot, imageName, layerPath)
		require.NoError(t, err)
		assert.Equal(t, MediaTypeLayer, desc.MediaType)
		assert.Equal(t, int64(len(content)), desc.Size)

		// The descriptor digest equals an independent hash of the bytes found
		// at the final blob path.
		final := filepath.Join(destRoot, "work", "team", "app", "blobs", desc.Digest.String())
		written, err := os.ReadFile(final)
		require.NoError(t, err)
		assert.Equal(t, "sha256:"+testutil.HexDigest(written), desc.Digest.String())
		assert.True(t, bytes.Equal(content, written))
	})

	t.Run("missing source layer", func(t *testing.T) {
		t.Parallel()
		sourceDir, destRoot := t.TempDir(), t.TempDir()
		require.NoError(t, PrepareLayout(destRoot, imageName))

		_, err := ProcessLayer(sourceDir, destRoot, imageName, "deadbeef/layer.tar")
		assert.ErrorIs(t, err, ErrLayerRead)
	})

	t.Run("no stray temp file after failure", func(t *testing.T) {
		t.Parallel()
		sourceDir, destRoot := t.TempDir(), t.TempDir()
		content := []byte("layer bytes")
		layerPath := writeLayer(t, sourceDir, content)
		// Layout never prepared: the temp file cannot be created.
		_, err := ProcessLayer(sourceDir, destRoot, imageName, layerPath)
		require.ErrorIs(t, err, ErrLayerWrite)

		matches, err := filepath.Glob(filepath.Join(destRoot, "work", "team", "app", "blobs", ".tmp-*"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("concurrent layers stay independent", func(t *testing.T) {
		t.Parallel()
		sourceDir, destRoot := t.TempDir(), t.TempDir()
		require.NoError(t, PrepareLayout(destRoot, imageName))

		var paths []string
		var contents [][]byte
		for i := 0; i < 8; i++ {
			content := bytes.Repeat([]byte{byte('a' + i)}, (i+1)*8192)
			paths = append(paths, writeLayer(t, sourceDir, content))
			contents = append(contents, content)
		}

		descs := make([]Descriptor, len(paths))
		var wg sync.WaitGroup
		for i, layerPath := range paths {
			i, layerPath := i, layerPath
			wg.Add(1)
			go func() {
				defer wg.Done()
				desc, err := ProcessLayer(sourceDir, destRoot, imageName, layerPath)
				assert.NoError(t, err)
				descs[i] = desc
			}()
		}
		wg.Wait()

		for i, desc := range descs {
			assert.Equal(t, "sha256:"+testutil.HexDigest(contents[i]), desc.Digest.String())
			assert.Equal(t, int64(len(contents[i])), desc.Size)
		}
	})
}

func TestTempBlobName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".tmp-1111", tempBlobName("1111/layer.tar"))
	assert.Equal(t, ".tmp-layer.tar", tempBlobName("layer.tar"))
	assert.True(t, strings.HasPrefix(tempBlobName("abc/def/layer.tar"), ".tmp-abc"))
}
