package imgstage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Stage identifies a phase of a pipeline run, reported in PipelineError.
type Stage string

// Pipeline stages in execution order.
const (
	StageMetadata Stage = "metadata"
	StageLayout   Stage = "layout"
	StageConfig   Stage = "config"
	StageLayers   Stage = "layers"
	StageManifest Stage = "manifest"
)

// Pipeline drives the conversion of one extracted image bundle into a
// content-addressed destination tree. Its configuration is fixed at
// construction and immutable for every run.
type Pipeline struct {
	destRoot   string
	logger     *slog.Logger
	keepSource bool
}

// New creates a Pipeline that stages images under destRoot.
func New(destRoot string, opts ...Option) (*Pipeline, error) {
	if destRoot == "" {
		return nil, fmt.Errorf("destination root must not be empty")
	}
	p := &Pipeline{destRoot: destRoot}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run converts the extracted bundle at sourceDir and returns the path of the
// completed work/<imageName> tree, ready for packaging.
//
// Metadata and layout steps run sequentially; the config relocation and all
// layer copies then run concurrently and are joined before the manifest is
// assembled, with layer descriptors collected by source position rather than
// completion order. On any failure the run stops at the first error, a
// best-effort removal of the source staging directory is attempted (its
// failure is logged, never propagated), and a *PipelineError naming the
// failed stage is returned. Already-relocated blobs are left in place; the
// caller owns the destination root and decides whether to retain the partial
// tree.
func (p *Pipeline) Run(ctx context.Context, sourceDir string) (string, error) {
	staged, err := p.run(ctx, sourceDir)
	if err != nil {
		p.cleanupSource(sourceDir)
		return "", err
	}
	return staged, nil
}

func (p *Pipeline) run(ctx context.Context, sourceDir string) (string, error) {
	index, err := ReadRepositoryIndex(sourceDir)
	if err != nil {
		return "", &PipelineError{Stage: StageMetadata, Path: repositoriesFileName, Err: err}
	}
	ref, ok := index.First()
	if !ok {
		return "", &PipelineError{
			Stage: StageMetadata,
			Path:  repositoriesFileName,
			Err:   fmt.Errorf("%w: no image references", ErrMetadataMalformed),
		}
	}

	entries, err := ReadManifestList(sourceDir)
	if err != nil {
		return "", &PipelineError{Stage: StageMetadata, Path: manifestListFileName, Err: err}
	}
	if len(entries) == 0 {
		return "", &PipelineError{
			Stage: StageMetadata,
			Path:  manifestListFileName,
			Err:   fmt.Errorf("%w: empty manifest list", ErrMetadataMalformed),
		}
	}
	entry := entries[0]

	name := NormalizeName(ref)
	p.log().Debug("metadata loaded", "reference", ref, "image", name, "layers", len(entry.Layers))

	if err := PrepareLayout(p.destRoot, name); err != nil {
		return "", &PipelineError{Stage: StageLayout, Path: imageRoot(p.destRoot, name), Err: err}
	}

	config, layers, err := p.relocateBlobs(ctx, sourceDir, name, entry)
	if err != nil {
		return "", err
	}

	manifest := AssembleManifest(config, layers)
	if err := WriteManifest(manifest, p.destRoot, name); err != nil {
		return "", &PipelineError{Stage: StageManifest, Path: manifestFileName, Err: err}
	}

	staged := imageRoot(p.destRoot, name)
	p.log().Info("image staged", "image", name, "path", staged)
	return staged, nil
}

// relocateBlobs runs the config relocation and all layer copies
// concurrently. Layer descriptors are stored by source position so the
// assembled manifest preserves source layer order regardless of which copy
// finishes first.
func (p *Pipeline) relocateBlobs(ctx context.Context, sourceDir, name string, entry ManifestEntry) (Descriptor, []Descriptor, error) {
	// Once issued, tasks run to completion: there is no mid-run cancellation,
	// and completed relocations are left in place on a sibling's failure.
	if err := ctx.Err(); err != nil {
		return Descriptor{}, nil, &PipelineError{Stage: StageConfig, Err: err}
	}

	var config Descriptor
	layers := make([]Descriptor, len(entry.Layers))

	var g errgroup.Group
	g.Go(func() error {
		desc, err := RelocateConfig(sourceDir, p.destRoot, name, entry.Config)
		if err != nil {
			return &PipelineError{Stage: StageConfig, Path: entry.Config, Err: err}
		}
		config = desc
		p.log().Debug("config relocated", "digest", desc.Digest, "size", desc.Size)
		return nil
	})
	for i, layerPath := range entry.Layers {
		i, layerPath := i, layerPath
		g.Go(func() error {
			desc, err := ProcessLayer(sourceDir, p.destRoot, name, layerPath)
			if err != nil {
				return &PipelineError{Stage: StageLayers, Path: layerPath, Err: err}
			}
			layers[i] = desc
			p.log().Debug("layer relocated", "layer", layerPath, "digest", desc.Digest, "size", desc.Size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Descriptor{}, nil, err
	}
	return config, layers, nil
}

// cleanupSource removes the source staging directory after a failed run.
// Cleanup failure is logged and never masks the run's original error.
func (p *Pipeline) cleanupSource(dir string) {
	if p.keepSource {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		p.log().Warn("source staging cleanup failed", "dir", filepath.Clean(dir), "error", err)
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Pipeline) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.logger
}
