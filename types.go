package imgstage

import (
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Media types written into the rewritten manifest. These must match the
// docker distribution values exactly for downstream compatibility.
const (
	// MediaTypeManifest is the media type of the manifest document itself.
	MediaTypeManifest = "application/vnd.docker.distribution.manifest.v2+json"

	// MediaTypeConfig is the media type of the image config blob.
	MediaTypeConfig = "application/vnd.docker.container.image.v1+json"

	// MediaTypeLayer is the media type of a gzipped layer tarball blob.
	MediaTypeLayer = "application/vnd.docker.image.rootfs.diff.tar.gzip"
)

// manifestSchemaVersion is the schema version of the rewritten manifest.
const manifestSchemaVersion = 2

// Descriptor describes one relocated blob by media type, content digest and
// size. A descriptor is produced exactly once per blob, only after the blob
// is fully written at its content-addressed path, and is immutable
// thereafter.
type Descriptor = ocispec.Descriptor

// Manifest is the rewritten manifest document referencing the config and
// ordered layer blobs purely by digest and size.
type Manifest = ocispec.Manifest

// Names within the destination tree <destRoot>/work/<imageName>.
const (
	workDirName      = "work"
	manifestsDirName = "manifests"
	blobsDirName     = "blobs"
	manifestFileName = "latest-v2"
)
