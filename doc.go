// Package imgstage converts an exported container-image bundle into a
// content-addressed blob store with a rewritten manifest, laid out for
// publication as an immutable, hash-verified archive.
//
// The input is the directory tree produced by extracting an image export
// (a docker-save style bundle): a `repositories` index, a `manifest.json`
// describing the image, and the config and layer files those reference by
// relative path. The output is a tree
//
//	<destRoot>/work/<imageName>/
//	    manifests/latest-v2
//	    blobs/sha256:<digest>
//
// where every blob is named by the SHA-256 digest of its own content and the
// manifest references blobs purely by digest and size.
//
// # Quick Start
//
// Stage an extracted bundle:
//
//	p, err := imgstage.New(destRoot)
//	if err != nil {
//	    return err
//	}
//	staged, err := p.Run(ctx, sourceDir)
//	if err != nil {
//	    return err
//	}
//	// staged is the completed work/<imageName> tree, ready for packaging.
//
// Layers are streamed through a SHA-256 digest while being relocated, so no
// blob is ever buffered whole in memory, and a manifest descriptor is only
// emitted after its blob is durably placed at its final content-addressed
// path.
//
// Unpacking the inbound archive and packaging the finished tree are handled
// by the [tarball] subpackage; the cmd/imgstage command wires the three
// together.
package imgstage
