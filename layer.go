package imgstage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/imgstage/internal/fileops"
)

// ProcessLayer streams one layer from the source bundle into
// content-addressed storage and returns its manifest descriptor.
//
// The layer is copied to a private temporary file in the destination blob
// directory while a SHA-256 digest accumulates over the same bytes; once the
// stream completes, the temporary file is atomically renamed to
// blobs/sha256:<digest>. The final name is only known after the copy
// finishes, and the descriptor is only built after the rename succeeds, so a
// descriptor never references a path that is not durably in place.
//
// Safe to call concurrently across layers: each call owns a distinct
// temporary file named after the layer's source-side hash segment, and the
// shared blob namespace is only entered through the atomic rename.
func ProcessLayer(sourceDir, destRoot, imageName, layerPath string) (Descriptor, error) {
	src, err := os.Open(filepath.Join(sourceDir, filepath.FromSlash(layerPath)))
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrLayerRead, err)
	}
	defer src.Close()

	dir := blobsDir(destRoot, imageName)
	tmpPath := filepath.Join(dir, tempBlobName(layerPath))
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrLayerWrite, err)
	}

	digester := digest.SHA256.Digester()
	hr := fileops.NewHashingReader(src, digester.Hash())

	if err := copyStream(tmp, hr); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Descriptor{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Descriptor{}, fmt.Errorf("%w: %w", ErrLayerWrite, err)
	}

	dgst := digester.Digest()
	finalPath := filepath.Join(dir, dgst.String())
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return Descriptor{}, fmt.Errorf("%w: %w", ErrLayerWrite, err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrLayerWrite, err)
	}

	return Descriptor{
		MediaType: MediaTypeLayer,
		Digest:    dgst,
		Size:      info.Size(),
	}, nil
}

// copyStream copies src to dst with a fixed buffer, attributing failures to
// the side that produced them so callers can distinguish a defective source
// bundle from a destination filesystem error.
func copyStream(dst io.Writer, src io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if werr != nil {
				return fmt.Errorf("%w: %w", ErrLayerWrite, werr)
			}
			if nw != nr {
				return fmt.Errorf("%w: %w", ErrLayerWrite, io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("%w: %w", ErrLayerRead, rerr)
		}
	}
}

// tempBlobName derives a private temporary file name from the layer's
// source-side hash directory segment. Bundles give every layer a distinct
// segment, so concurrent layer tasks never collide.
func tempBlobName(layerPath string) string {
	seg := layerPath
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	return ".tmp-" + seg
}
