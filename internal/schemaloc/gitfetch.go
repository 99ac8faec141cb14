package schemaloc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/logfields"
	"git.home.luguber.info/inful/structgen/internal/observability"
	"git.home.luguber.info/inful/structgen/internal/retry"
)

// gitFetcher clones schema repositories into a cache directory, one clone
// per repository+ref, reused across resolutions in the same process.
type gitFetcher struct {
	baseDir string

	// The mutex covers the whole fetch so concurrent resolutions of the
	// same repository never race into the same clone directory.
	mu     sync.Mutex
	clones map[string]string
}

func newGitFetcher(baseDir string) *gitFetcher {
	return &gitFetcher{baseDir: baseDir, clones: make(map[string]string)}
}

// fetch returns a local clone of repoURL at ref, cloning on first use. Clones
// survive on disk, so later processes get a cache hit without network access.
func (g *gitFetcher) fetch(ctx context.Context, repoURL, ref string, policy retry.Policy) (string, error) {
	key := cloneKey(repoURL, ref)

	g.mu.Lock()
	defer g.mu.Unlock()

	collector := observability.GetMetricsCollector()
	if dir, ok := g.clones[key]; ok {
		collector.RecordCacheHit("git_clone")
		return dir, nil
	}

	dir := filepath.Join(g.baseDir, key)
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		collector.RecordCacheHit("git_clone")
		g.clones[key] = dir
		return dir, nil
	}
	collector.RecordCacheMiss("git_clone")

	if err := g.clone(ctx, repoURL, ref, dir, policy); err != nil {
		return "", err
	}
	g.clones[key] = dir
	return dir, nil
}

// clone runs the clone through the retry policy. Auth, missing-repository and
// protocol errors short-circuit; transport hiccups are retried.
func (g *gitFetcher) clone(ctx context.Context, repoURL, ref, dir string, policy retry.Policy) error {
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying schema repository clone", slog.String("repository", repoURL), slog.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return errors.GitNetworkError(repoURL, ctx.Err())
			case <-time.After(policy.Delay(attempt)):
			}
		}

		err := g.cloneOnce(ctx, repoURL, ref, dir)
		if err == nil {
			return nil
		}
		lastErr = err
		if isPermanentCloneError(err) {
			slog.Error("Permanent clone error", slog.String("repository", repoURL), logfields.Error(err))
			return errors.GitCloneError(repoURL, err)
		}
	}
	return errors.GitNetworkError(repoURL, fmt.Errorf("clone failed after %d retries: %w", policy.MaxRetries, lastErr))
}

// cloneOnce performs a single clone attempt. A named ref is tried as a branch
// first and as a tag when the branch does not exist.
func (g *gitFetcher) cloneOnce(ctx context.Context, repoURL, ref, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove stale clone directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o750); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL: repoURL,
	}
	if ref != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + ref)
		cloneOptions.SingleBranch = true
	}
	if auth := gitAuth(repoURL); auth != nil {
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainCloneContext(ctx, dir, false, cloneOptions)
	if err != nil && ref != "" && strings.Contains(strings.ToLower(err.Error()), "reference not found") {
		_ = os.RemoveAll(dir)
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/tags/" + ref)
		repository, err = git.PlainCloneContext(ctx, dir, false, cloneOptions)
	}
	if err != nil {
		return fmt.Errorf("failed to clone repository %s: %w", repoURL, err)
	}

	if head, headErr := repository.Head(); headErr == nil {
		slog.Info("Schema repository cloned",
			slog.String("repository", repoURL),
			slog.String("commit", head.Hash().String()[:8]),
			logfields.Path(dir))
	} else {
		slog.Info("Schema repository cloned", slog.String("repository", repoURL), logfields.Path(dir))
	}
	return nil
}

// gitAuth returns ambient token credentials for http(s) remotes when
// STRUCTGEN_GIT_TOKEN is set. Public schema repositories need none.
func gitAuth(repoURL string) transport.AuthMethod {
	if !strings.HasPrefix(repoURL, "http://") && !strings.HasPrefix(repoURL, "https://") {
		return nil
	}
	token := os.Getenv("STRUCTGEN_GIT_TOKEN")
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: "token", // GitHub/GitLab use "token" as username
		Password: token,
	}
}

func isPermanentCloneError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return true
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "repository does not exist") || strings.Contains(msg, "invalid reference") {
		return true
	}
	if strings.Contains(msg, "unsupported protocol") || strings.Contains(msg, "unknown scheme") {
		return true
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

// cloneKey derives a stable directory name for a repository+ref pair. The
// readable prefix keeps cache dirs identifiable during debugging.
func cloneKey(repoURL, ref string) string {
	sum := sha256.Sum256([]byte(repoURL + "\x00" + ref))
	base := strings.TrimSuffix(path.Base(repoURL), ".git")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	return base + "-" + hex.EncodeToString(sum[:6])
}
