package imgstage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/imgstage/internal/testutil"
)

func TestRelocateConfig(t *testing.T) {
	t.Parallel()

	const imageName = "team/app"

	setup := func(t *testing.T, content []byte) (sourceDir, destRoot, configPath string) {
		t.Helper()
		sourceDir, destRoot = t.TempDir(), t.TempDir()
		configPath = testutil.HexDigest(content) + ".json"
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, configPath), content, 0o640))
		require.NoError(t, PrepareLayout(destRoot, imageName))
		return sourceDir, destRoot, configPath
	}

	t.Run("moves blob and emits descriptor", func(t *testing.T) {
		t.Parallel()
		content := []byte(`{"architecture":"amd64"}`)
		sourceDir, destRoot, configPath := setup(t, content)

		desc, err := RelocateConfig(sourceDir, destRoot, imageName, configPath)
		require.NoError(t, err)

		wantDigest := "sha256:" + testutil.HexDigest(content)
		assert.Equal(t, MediaTypeConfig, desc.MediaType)
		assert.Equal(t, wantDigest, desc.Digest.String())
		assert.Equal(t, int64(len(content)), desc.Size)

		// Content-addressing invariant: the blob lives at blobs/<its own digest>.
		moved, err := os.ReadFile(filepath.Join(destRoot, "work", "team", "app", "blobs", wantDigest))
		require.NoError(t, err)
		assert.Equal(t, content, moved)

		// Atomic move, not copy: the source is gone.
		_, err = os.Stat(filepath.Join(sourceDir, configPath))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing config", func(t *testing.T) {
		t.Parallel()
		sourceDir, destRoot := t.TempDir(), t.TempDir()
		require.NoError(t, PrepareLayout(destRoot, imageName))

		_, err := RelocateConfig(sourceDir, destRoot, imageName, testutil.HexDigest(nil)+".json")
		assert.ErrorIs(t, err, ErrConfigMissing)
	})

	t.Run("filename without digest stem", func(t *testing.T) {
		t.Parallel()
		sourceDir, destRoot := t.TempDir(), t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "config.json"), []byte("{}"), 0o640))
		require.NoError(t, PrepareLayout(destRoot, imageName))

		_, err := RelocateConfig(sourceDir, destRoot, imageName, "config.json")
		assert.ErrorIs(t, err, ErrMetadataMalformed)
	})

	t.Run("rename failure leaves source intact", func(t *testing.T) {
		t.Parallel()
		content := []byte(`{"os":"linux"}`)
		sourceDir, destRoot, configPath := setup(t, content)
		// Destroy the blobs directory so the rename target is invalid.
		require.NoError(t, os.RemoveAll(filepath.Join(destRoot, "work", "team", "app", "blobs")))

		_, err := RelocateConfig(sourceDir, destRoot, imageName, configPath)
		assert.ErrorIs(t, err, ErrRelocationFailed)

		still, err := os.ReadFile(filepath.Join(sourceDir, configPath))
		require.NoError(t, err)
		assert.Equal(t, content, still)
	})
}
