// Package schemaloc resolves schema source locations into readable local
// files. Locations may be plain filesystem paths, bare names looked up in
// registered search roots, file:// and http(s):// URLs, or git sources of
// the form git+https://host/repo.git//path/in/repo@ref.
package schemaloc

import (
	"fmt"
	"strings"
)

// Kind identifies the transport a schema location uses.
type Kind string

const (
	KindFile Kind = "file"
	KindHTTP Kind = "http"
	KindGit  Kind = "git"
)

// Location is a parsed schema source reference.
type Location struct {
	Raw  string
	Kind Kind

	// Path is the filesystem path for file locations.
	Path string

	// URL is the fetch URL for http locations.
	URL string

	// RepoURL, Subpath and Ref describe git locations. An empty Ref means
	// the remote default branch.
	RepoURL string
	Subpath string
	Ref     string
}

// Parse interprets a raw schema location string.
func Parse(raw string) (Location, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Location{}, fmt.Errorf("empty schema location")
	}

	switch {
	case strings.HasPrefix(trimmed, "git+"):
		return parseGit(raw, strings.TrimPrefix(trimmed, "git+"))
	case strings.HasPrefix(trimmed, "http://"), strings.HasPrefix(trimmed, "https://"):
		return Location{Raw: raw, Kind: KindHTTP, URL: trimmed}, nil
	case strings.HasPrefix(trimmed, "file://"):
		path := strings.TrimPrefix(trimmed, "file://")
		if path == "" {
			return Location{}, fmt.Errorf("file location %q has no path", raw)
		}
		return Location{Raw: raw, Kind: KindFile, Path: path}, nil
	default:
		return Location{Raw: raw, Kind: KindFile, Path: trimmed}, nil
	}
}

// parseGit splits git+<url>//<subpath>[@ref] into its parts. The subpath
// separator is the first "//" after the scheme, so user@host URLs keep
// their user part in the repository URL.
func parseGit(raw, rest string) (Location, error) {
	schemeIdx := strings.Index(rest, "://")
	if schemeIdx < 0 {
		return Location{}, fmt.Errorf("git location %q is missing a scheme", raw)
	}
	switch scheme := rest[:schemeIdx]; scheme {
	case "http", "https", "ssh":
	default:
		return Location{}, fmt.Errorf("git location %q has unsupported scheme %q", raw, scheme)
	}

	tail := rest[schemeIdx+3:]
	sep := strings.Index(tail, "//")
	if sep < 0 {
		return Location{}, fmt.Errorf("git location %q is missing the //path separator", raw)
	}

	repoURL := rest[:schemeIdx+3+sep]
	subpath := tail[sep+2:]
	ref := ""
	if at := strings.LastIndex(subpath, "@"); at >= 0 {
		ref = subpath[at+1:]
		subpath = subpath[:at]
	}
	subpath = strings.Trim(subpath, "/")
	if subpath == "" {
		return Location{}, fmt.Errorf("git location %q has an empty path inside the repository", raw)
	}

	return Location{Raw: raw, Kind: KindGit, RepoURL: repoURL, Subpath: subpath, Ref: ref}, nil
}
