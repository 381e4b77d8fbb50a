package imgstage

import "strings"

// NormalizeName derives the canonical image name from a reference found in
// the repository index. A reference whose first path segment looks like a
// registry host has that segment stripped:
//
//	registry.example.com:5000/team/app -> team/app
//	team/app                           -> team/app
//	app                                -> app
//
// A segment qualifies as a host when it contains a dot or a colon; a colon
// alone qualifies, since a port implies a host. A multi-segment reference
// with neither marker is returned unchanged, which is ambiguous with bare
// repository names and accepted as a limitation of the bundle format.
func NormalizeName(ref string) string {
	host, rest, ok := strings.Cut(ref, "/")
	if !ok {
		return ref
	}
	if strings.ContainsAny(host, ".:") {
		return rest
	}
	return ref
}
