package schemaloc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/structgen/internal/errors"
)

// seedRepo creates a git repository with one committed schema file and
// returns its path, usable as a clone URL.
func seedRepo(t *testing.T, schemaName, content string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, schemaName), []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := wt.Add(schemaName); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := wt.Commit("seed", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return dir
}

func TestGitResolve(t *testing.T) {
	remote := seedRepo(t, "address.json", `{"type":"object"}`)

	r := NewResolver(t.TempDir(), testPolicy())
	loc := Location{Raw: "git fixture", Kind: KindGit, RepoURL: remote, Subpath: "address.json"}
	res, err := r.resolveGit(context.Background(), loc)
	if err != nil {
		t.Fatalf("resolveGit: %v", err)
	}
	if res.Kind != KindGit {
		t.Errorf("Kind = %s, want %s", res.Kind, KindGit)
	}
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"type":"object"}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestGitResolveMissingSubpath(t *testing.T) {
	remote := seedRepo(t, "present.json", "{}")

	r := NewResolver(t.TempDir(), testPolicy())
	loc := Location{Raw: "git fixture", Kind: KindGit, RepoURL: remote, Subpath: "absent.json"}
	_, err := r.resolveGit(context.Background(), loc)
	if err == nil {
		t.Fatal("expected error for missing path in repository")
	}
	if !errors.IsCategory(err, errors.CategorySchema) {
		t.Errorf("expected schema category, got %v", errors.GetCategory(err))
	}
	if errors.IsRetryable(err) {
		t.Error("missing path in clone must not be retryable")
	}
}

func TestGitFetchCachesClones(t *testing.T) {
	remote := seedRepo(t, "a.json", "{}")

	f := newGitFetcher(filepath.Join(t.TempDir(), "clones"))
	first, err := f.fetch(context.Background(), remote, "", testPolicy())
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := f.fetch(context.Background(), remote, "", testPolicy())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if first != second {
		t.Errorf("expected cached clone dir, got %s then %s", first, second)
	}
	if _, err := os.Stat(filepath.Join(first, "a.json")); err != nil {
		t.Errorf("clone missing schema file: %v", err)
	}
}

func TestGitFetchReusesOnDiskClone(t *testing.T) {
	remote := seedRepo(t, "a.json", "{}")
	base := filepath.Join(t.TempDir(), "clones")

	first, err := newGitFetcher(base).fetch(context.Background(), remote, "", testPolicy())
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	// A fresh fetcher over the same base dir stands in for a later process.
	second, err := newGitFetcher(base).fetch(context.Background(), remote, "", testPolicy())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if first != second {
		t.Errorf("expected on-disk clone reuse, got %s then %s", first, second)
	}
}

func TestGitFetchMissingRepoFailsFast(t *testing.T) {
	f := newGitFetcher(t.TempDir())
	start := time.Now()
	_, err := f.fetch(context.Background(), filepath.Join(t.TempDir(), "no-such-repo"), "", testPolicy())
	if err == nil {
		t.Fatal("expected error for missing repository")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("missing repository should fail without retries, took %v", elapsed)
	}
	if errors.IsRetryable(err) {
		t.Error("missing repository must not be retryable")
	}
}

func TestCloneKeyStability(t *testing.T) {
	a := cloneKey("https://example.com/schemas.git", "main")
	b := cloneKey("https://example.com/schemas.git", "main")
	if a != b {
		t.Errorf("same inputs must give same key: %s vs %s", a, b)
	}
	if c := cloneKey("https://example.com/schemas.git", "dev"); c == a {
		t.Error("different refs must give different keys")
	}
	if d := cloneKey("https://other.example.com/schemas.git", "main"); d == a {
		t.Error("different repositories must give different keys")
	}
}
