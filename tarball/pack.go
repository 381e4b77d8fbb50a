package tarball

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// PackOptions configures Pack.
type PackOptions struct {
	// Gzip compresses the archive stream.
	Gzip bool
}

// Pack writes the contents of dir to w as a tar archive, walking in lexical
// order so identical trees produce identical archives. Only directories and
// regular files are included.
func Pack(dir string, w io.Writer, opts PackOptions) error {
	if opts.Gzip {
		gz := gzip.NewWriter(w)
		if err := pack(dir, gz); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}
	return pack(dir, w)
}

func pack(dir string, w io.Writer) error {
	tw := tar.NewWriter(w)

	err := fs.WalkDir(os.DirFS(dir), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("header for %s: %w", path, err)
		}
		hdr.Name = filepath.ToSlash(path)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header for %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(path)))
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("pack %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Close()
}
