package imgstage

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrepareLayout creates the destination directory skeleton for an image:
// manifests/ and blobs/ under <destRoot>/work/<imageName>. Parent segments
// are created as needed and the call is idempotent; it fails only on a
// filesystem-level denial.
func PrepareLayout(destRoot, imageName string) error {
	root := imageRoot(destRoot, imageName)
	for _, dir := range []string{manifestsDirName, blobsDirName} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o750); err != nil {
			return fmt.Errorf("%w: %w", ErrLayout, err)
		}
	}
	return nil
}

// imageRoot returns <destRoot>/work/<imageName>. The image name may contain
// path separators (e.g. "team/app"); those become nested directories.
func imageRoot(destRoot, imageName string) string {
	return filepath.Join(destRoot, workDirName, filepath.FromSlash(imageName))
}

// blobsDir returns the shared blob directory for an image.
func blobsDir(destRoot, imageName string) string {
	return filepath.Join(imageRoot(destRoot, imageName), blobsDirName)
}
