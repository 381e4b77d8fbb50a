package imgstage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

// configSuffix is the fixed suffix on config blob filenames in the source
// bundle; the stem before it is the blob's raw hex digest.
const configSuffix = ".json"

// RelocateConfig moves the image config blob into content-addressed storage
// and returns its manifest descriptor.
//
// The digest is taken from the source filename stem and is not recomputed;
// the bundle's naming convention is trusted. The move is a single atomic
// rename, so the file either lands at its destination or remains at the
// source, never both and never neither.
func RelocateConfig(sourceDir, destRoot, imageName, configPath string) (Descriptor, error) {
	stem := strings.TrimSuffix(filepath.Base(filepath.FromSlash(configPath)), configSuffix)
	dgst := digest.NewDigestFromEncoded(digest.SHA256, stem)
	if err := dgst.Validate(); err != nil {
		return Descriptor{}, fmt.Errorf("%w: config filename %q does not encode a digest: %v", ErrMetadataMalformed, configPath, err)
	}

	src := filepath.Join(sourceDir, filepath.FromSlash(configPath))
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrConfigMissing, src)
		}
		return Descriptor{}, fmt.Errorf("%w: %w", ErrRelocationFailed, err)
	}

	dst := filepath.Join(blobsDir(destRoot, imageName), dgst.String())
	if err := os.Rename(src, dst); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrRelocationFailed, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrRelocationFailed, err)
	}

	return Descriptor{
		MediaType: MediaTypeConfig,
		Digest:    dgst,
		Size:      info.Size(),
	}, nil
}
