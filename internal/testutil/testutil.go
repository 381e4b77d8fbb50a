// Package testutil builds synthetic extracted image bundles for tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Bundle describes a synthetic extracted image bundle: the repositories
// index content, one config blob and its ordered layer contents.
type Bundle struct {
	// RepositoriesJSON is written verbatim as the repositories file. Raw JSON
	// keeps key order under the caller's control.
	RepositoriesJSON string

	// ConfigContent is the config blob; its file is named <sha256-hex>.json.
	ConfigContent []byte

	// RepoTags is recorded in the manifest entry.
	RepoTags []string

	// LayerContents are the layer blobs in manifest order. Each is placed at
	// <sha256-hex>/layer.tar using a hash of its own content as the source
	// directory segment.
	LayerContents [][]byte
}

// manifestItem mirrors the docker-save manifest.json entry shape.
type manifestItem struct {
	Config   string
	RepoTags []string
	Layers   []string
}

// WriteBundle materializes the bundle under dir and returns the relative
// config and layer paths it recorded in manifest.json.
func WriteBundle(tb testing.TB, dir string, b Bundle) (configPath string, layerPaths []string) {
	tb.Helper()

	configPath = HexDigest(b.ConfigContent) + ".json"
	writeFile(tb, filepath.Join(dir, configPath), b.ConfigContent)

	for _, content := range b.LayerContents {
		rel := filepath.Join(HexDigest(content), "layer.tar")
		writeFile(tb, filepath.Join(dir, rel), content)
		layerPaths = append(layerPaths, filepath.ToSlash(rel))
	}

	manifest, err := json.Marshal([]manifestItem{{
		Config:   configPath,
		RepoTags: b.RepoTags,
		Layers:   layerPaths,
	}})
	if err != nil {
		tb.Fatalf("marshal manifest list: %v", err)
	}
	writeFile(tb, filepath.Join(dir, "manifest.json"), manifest)
	writeFile(tb, filepath.Join(dir, "repositories"), []byte(b.RepositoriesJSON))

	return configPath, layerPaths
}

// HexDigest returns the lowercase hex SHA-256 of data.
func HexDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}
