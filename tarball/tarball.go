// Package tarball implements the archive collaborators around the staging
// pipeline: extracting an exported image bundle into a working directory and
// packaging a finished destination tree for distribution.
package tarball

import "errors"

// ErrUnsafePath is returned when an archive entry would escape the
// extraction directory.
var ErrUnsafePath = errors.New("archive entry path escapes extraction directory")
