package imgstage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Metadata file names inside an extracted image bundle.
const (
	repositoriesFileName = "repositories"
	manifestListFileName = "manifest.json"
)

// TagMap maps a tag name to the identifier it points at.
type TagMap map[string]string

// RepositoryIndex is the parsed repositories file. References preserves the
// document order of the JSON object keys; only the first reference is
// consumed by the pipeline, so that order is load-bearing.
type RepositoryIndex struct {
	References []string
	Tags       map[string]TagMap
}

// First returns the first image reference in document order.
func (ri *RepositoryIndex) First() (string, bool) {
	if len(ri.References) == 0 {
		return "", false
	}
	return ri.References[0], true
}

// UnmarshalJSON decodes the repositories object while recording key order,
// which encoding/json map decoding would discard.
func (ri *RepositoryIndex) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("repositories: expected JSON object, got %v", tok)
	}

	ri.Tags = make(map[string]TagMap)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		ref, ok := tok.(string)
		if !ok {
			return fmt.Errorf("repositories: non-string key %v", tok)
		}
		var tags TagMap
		if err := dec.Decode(&tags); err != nil {
			return err
		}
		ri.References = append(ri.References, ref)
		ri.Tags[ref] = tags
	}
	return nil
}

// ManifestEntry is one element of the source bundle's manifest list. Config
// is the relative path to the config blob, whose filename stem encodes its
// digest. Layers are relative paths in filesystem-diff application order;
// each is prefixed by a per-layer hash directory segment used only to locate
// the source file.
type ManifestEntry struct {
	Config   string
	RepoTags []string
	Layers   []string
}

// ReadRepositoryIndex loads and parses the repositories file from an
// extracted bundle. Absence is a fatal input defect, never retried.
func ReadRepositoryIndex(sourceDir string) (*RepositoryIndex, error) {
	var index RepositoryIndex
	if err := readMetadata(sourceDir, repositoriesFileName, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// ReadManifestList loads and parses the manifest list from an extracted
// bundle. Only the first entry is processed by the pipeline.
func ReadManifestList(sourceDir string) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	if err := readMetadata(sourceDir, manifestListFileName, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readMetadata(sourceDir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(sourceDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMetadataNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMetadataMalformed, name, err)
	}
	return nil
}
