package tarball

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte header that identifies a gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// Extract unpacks a tar stream into dir. Gzip compression is detected from
// the stream header, so both `docker save` output and gzipped exports work
// unchanged. Entries that would escape dir are rejected with ErrUnsafePath;
// non-regular entries other than directories are skipped.
func Extract(r io.Reader, dir string) error {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		return untar(tar.NewReader(gz), dir)
	}
	return untar(tar.NewReader(br), dir)
}

func untar(tr *tar.Reader, dir string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}
		target := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, name); err != nil {
				return err
			}
		default:
			// Symlinks, devices and the like have no place in an image
			// bundle; skip rather than fail on exporter quirks.
		}
	}
}

func extractFile(tr *tar.Reader, target, name string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, tr); err != nil {
		f.Close()
		return fmt.Errorf("extract %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}
