package imgstage

import (
	"errors"
	"fmt"
)

// Input defects: the source bundle is missing or malformed. Fatal, never
// retried.
var (
	// ErrMetadataNotFound is returned when a required metadata file is absent
	// from the source bundle.
	ErrMetadataNotFound = errors.New("metadata file not found")

	// ErrMetadataMalformed is returned when a metadata file is not valid JSON
	// or does not describe an image.
	ErrMetadataMalformed = errors.New("metadata malformed")

	// ErrConfigMissing is returned when the config blob referenced by the
	// manifest list does not exist on disk.
	ErrConfigMissing = errors.New("config blob missing")

	// ErrLayerRead is returned when a layer's source stream cannot be opened
	// or read.
	ErrLayerRead = errors.New("layer read failed")
)

// Filesystem errors: the destination tree could not be produced.
var (
	// ErrLayout is returned when the destination directory skeleton cannot be
	// created.
	ErrLayout = errors.New("layout creation failed")

	// ErrRelocationFailed is returned when the config blob cannot be moved to
	// its content-addressed path.
	ErrRelocationFailed = errors.New("config relocation failed")

	// ErrLayerWrite is returned when a layer cannot be written or renamed at
	// the destination.
	ErrLayerWrite = errors.New("layer write failed")

	// ErrManifestWrite is returned when the rewritten manifest cannot be
	// persisted.
	ErrManifestWrite = errors.New("manifest write failed")
)

// PipelineError is the terminal error surfaced by a failed run. It names the
// stage that failed and, where known, the offending path, so a failure can be
// diagnosed without re-running with added instrumentation.
type PipelineError struct {
	Stage Stage
	Path  string
	Err   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying component error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}
