package schemaloc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/logfields"
	"git.home.luguber.info/inful/structgen/internal/observability"
	"git.home.luguber.info/inful/structgen/internal/retry"
)

// ResolvedSchema is a schema location resolved to a readable local file.
type ResolvedSchema struct {
	Location  string
	Kind      Kind
	LocalPath string
}

// searchRoot is a named fs.FS consulted for bare schema names.
type searchRoot struct {
	name string
	fsys fs.FS
}

// Resolver resolves schema locations to local files. Remote sources are
// fetched into cacheDir; bare names are looked up in registered search roots.
type Resolver struct {
	cacheDir   string
	httpClient *http.Client
	policy     retry.Policy
	git        *gitFetcher
	roots      []searchRoot
}

// NewResolver creates a resolver that caches remote fetches under cacheDir.
func NewResolver(cacheDir string, policy retry.Policy) *Resolver {
	return &Resolver{
		cacheDir:   cacheDir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     policy,
		git:        newGitFetcher(filepath.Join(cacheDir, "clones")),
	}
}

// AddSearchRoot registers a named filesystem consulted, in registration
// order, when a location is a bare name rather than an existing path.
func (r *Resolver) AddSearchRoot(name string, fsys fs.FS) {
	r.roots = append(r.roots, searchRoot{name: name, fsys: fsys})
}

// Resolve turns a raw schema location into a local file path. A location
// that resolves to nothing readable is reported immediately; callers treat
// that as a precondition failure and start no work for it.
func (r *Resolver) Resolve(ctx context.Context, raw string) (ResolvedSchema, error) {
	loc, err := Parse(raw)
	if err != nil {
		return ResolvedSchema{}, errors.SchemaNotFound(raw).WithContext("reason", err.Error())
	}

	ctx, span := observability.GetGlobalTracer().StartFetchSpan(ctx, string(loc.Kind), raw)

	var resolved ResolvedSchema
	switch loc.Kind {
	case KindFile:
		resolved, err = r.resolveFile(loc)
	case KindHTTP:
		resolved, err = r.resolveHTTP(ctx, loc)
	case KindGit:
		resolved, err = r.resolveGit(ctx, loc)
	default:
		err = errors.SchemaNotFound(raw).WithContext("reason", fmt.Sprintf("unsupported location kind %q", loc.Kind))
	}
	observability.EndSpan(span, err)
	if err != nil {
		return ResolvedSchema{}, err
	}

	slog.Debug("Schema location resolved", logfields.Schema(raw), slog.String("kind", string(resolved.Kind)), logfields.Path(resolved.LocalPath))
	return resolved, nil
}

// resolveFile checks a filesystem path, falling back to the search roots for
// bare names.
func (r *Resolver) resolveFile(loc Location) (ResolvedSchema, error) {
	info, err := os.Stat(loc.Path)
	if err == nil {
		if info.IsDir() {
			return ResolvedSchema{}, errors.SchemaNotFound(loc.Raw).WithContext("reason", "location is a directory, not a schema file")
		}
		return ResolvedSchema{Location: loc.Raw, Kind: KindFile, LocalPath: loc.Path}, nil
	}

	// Bare names may be resources in a registered search root.
	if !strings.ContainsAny(loc.Path, `/\`) {
		if res, ok := r.lookupSearchRoots(loc); ok {
			return res, nil
		}
	}

	return ResolvedSchema{}, errors.SchemaNotFound(loc.Raw)
}

// lookupSearchRoots tries each registered root in order and materializes the
// first hit under the cache dir so callers always get an on-disk path.
func (r *Resolver) lookupSearchRoots(loc Location) (ResolvedSchema, bool) {
	for _, root := range r.roots {
		data, err := fs.ReadFile(root.fsys, loc.Path)
		if err != nil {
			continue
		}
		target := filepath.Join(r.cacheDir, "resources", root.name, loc.Path)
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			slog.Warn("Cannot materialize search root hit", logfields.Schema(loc.Raw), logfields.Error(err))
			continue
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			slog.Warn("Cannot materialize search root hit", logfields.Schema(loc.Raw), logfields.Error(err))
			continue
		}
		slog.Debug("Schema found in search root", logfields.Schema(loc.Raw), slog.String("root", root.name))
		return ResolvedSchema{Location: loc.Raw, Kind: KindFile, LocalPath: target}, true
	}
	return ResolvedSchema{}, false
}

// resolveHTTP downloads the schema into the cache dir. Missing resources are
// permanent failures; server and transport errors go through the retry policy.
func (r *Resolver) resolveHTTP(ctx context.Context, loc Location) (ResolvedSchema, error) {
	target := filepath.Join(r.cacheDir, "downloads", downloadName(loc.URL))

	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying schema download", logfields.Schema(loc.Raw), slog.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ResolvedSchema{}, errors.SchemaFetchError(loc.Raw, ctx.Err())
			case <-time.After(r.policy.Delay(attempt)):
			}
		}

		err := r.download(ctx, loc.URL, target)
		if err == nil {
			return ResolvedSchema{Location: loc.Raw, Kind: KindHTTP, LocalPath: target}, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) {
			return ResolvedSchema{}, err
		}
	}
	return ResolvedSchema{}, lastErr
}

// download fetches url into target via a temp file rename so a failed fetch
// never leaves a truncated schema behind.
func (r *Resolver) download(ctx context.Context, rawURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.SchemaNotFound(rawURL).WithContext("reason", err.Error())
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return errors.SchemaFetchError(rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return errors.SchemaNotFound(rawURL).WithContext("status", resp.Status)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return errors.SchemaFetchError(rawURL, fmt.Errorf("server returned %s", resp.Status))
	default:
		return errors.New(errors.CategorySchema, errors.SeverityFatal, "schema fetch rejected").
			WithContext("location", rawURL).
			WithContext("status", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WorkspaceError("create download dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return errors.WorkspaceError("create download file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.SchemaFetchError(rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WorkspaceError("close download file", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.WorkspaceError("finalize download", err)
	}
	return nil
}

// downloadName derives a stable cache file name that keeps the URL's
// extension so source-type sniffing by extension still works downstream.
func downloadName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = path.Ext(u.Path)
	}
	return hex.EncodeToString(sum[:8]) + ext
}

// resolveGit clones (or reuses a cached clone of) the repository and returns
// the requested path inside it.
func (r *Resolver) resolveGit(ctx context.Context, loc Location) (ResolvedSchema, error) {
	cloneDir, err := r.git.fetch(ctx, loc.RepoURL, loc.Ref, r.policy)
	if err != nil {
		return ResolvedSchema{}, err
	}

	local := filepath.Join(cloneDir, filepath.FromSlash(loc.Subpath))
	info, err := os.Stat(local)
	if err != nil || info.IsDir() {
		return ResolvedSchema{}, errors.SchemaNotFound(loc.Raw).
			WithContext("repository", loc.RepoURL).
			WithContext("path", loc.Subpath)
	}
	return ResolvedSchema{Location: loc.Raw, Kind: KindGit, LocalPath: local}, nil
}
