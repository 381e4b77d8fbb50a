package imgstage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	specs "github.com/opencontainers/image-spec/specs-go"

	"github.com/meigma/imgstage/internal/fileops"
)

// AssembleManifest composes the config descriptor and layer descriptors into
// the rewritten manifest document. The layer slice is used as given: order
// encodes filesystem-diff application order and reordering corrupts the
// image.
func AssembleManifest(config Descriptor, layers []Descriptor) Manifest {
	return Manifest{
		Versioned: specs.Versioned{SchemaVersion: manifestSchemaVersion},
		MediaType: MediaTypeManifest,
		Config:    config,
		Layers:    layers,
	}
}

// WriteManifest persists the manifest as UTF-8 JSON to
// <destRoot>/work/<imageName>/manifests/latest-v2, atomically via a
// temporary file and rename.
func WriteManifest(m Manifest, destRoot, imageName string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestWrite, err)
	}
	path := filepath.Join(imageRoot(destRoot, imageName), manifestsDirName, manifestFileName)
	if err := fileops.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrManifestWrite, err)
	}
	return nil
}
