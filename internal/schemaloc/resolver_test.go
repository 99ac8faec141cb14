package schemaloc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, 5*time.Millisecond, 2)
}

func TestResolveLocalFile(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "address.json")
	if err := os.WriteFile(schema, []byte(`{"type":"object"}`), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	r := NewResolver(t.TempDir(), testPolicy())
	res, err := r.Resolve(context.Background(), schema)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.LocalPath != schema {
		t.Errorf("LocalPath = %s, want %s", res.LocalPath, schema)
	}
	if res.Kind != KindFile {
		t.Errorf("Kind = %s, want %s", res.Kind, KindFile)
	}
}

func TestResolveFileURL(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "address.yaml")
	if err := os.WriteFile(schema, []byte("type: object\n"), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	r := NewResolver(t.TempDir(), testPolicy())
	res, err := r.Resolve(context.Background(), "file://"+schema)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.LocalPath != schema {
		t.Errorf("LocalPath = %s, want %s", res.LocalPath, schema)
	}
}

func TestResolveMissingFileFailsFast(t *testing.T) {
	r := NewResolver(t.TempDir(), testPolicy())
	_, err := r.Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing schema")
	}
	if !errors.IsCategory(err, errors.CategorySchema) {
		t.Errorf("expected schema category, got %v", errors.GetCategory(err))
	}
	if errors.IsRetryable(err) {
		t.Error("missing schema must not be retryable")
	}
}

func TestResolveDirectoryRejected(t *testing.T) {
	r := NewResolver(t.TempDir(), testPolicy())
	_, err := r.Resolve(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for directory location")
	}
	if !errors.IsCategory(err, errors.CategorySchema) {
		t.Errorf("expected schema category, got %v", errors.GetCategory(err))
	}
}

func TestResolveSearchRoots(t *testing.T) {
	r := NewResolver(t.TempDir(), testPolicy())
	r.AddSearchRoot("embedded", fstest.MapFS{
		"address.json": &fstest.MapFile{Data: []byte(`{"type":"object"}`)},
	})

	res, err := r.Resolve(context.Background(), "address.json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		t.Fatalf("read materialized schema: %v", err)
	}
	if string(data) != `{"type":"object"}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestResolveSearchRootOrder(t *testing.T) {
	r := NewResolver(t.TempDir(), testPolicy())
	r.AddSearchRoot("first", fstest.MapFS{"a.json": &fstest.MapFile{Data: []byte("first")}})
	r.AddSearchRoot("second", fstest.MapFS{"a.json": &fstest.MapFile{Data: []byte("second")}})

	res, err := r.Resolve(context.Background(), "a.json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		t.Fatalf("read materialized schema: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("expected first root to win, got %q", data)
	}
}

func TestResolveSearchRootsSkipPaths(t *testing.T) {
	// Locations with separators are paths, never search root lookups.
	r := NewResolver(t.TempDir(), testPolicy())
	r.AddSearchRoot("embedded", fstest.MapFS{
		"sub/a.json": &fstest.MapFile{Data: []byte("{}")},
	})

	if _, err := r.Resolve(context.Background(), "sub/a.json"); err == nil {
		t.Fatal("expected error for path-like location absent from disk")
	}
}

func TestResolveHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"title":"Address"}`))
	}))
	defer srv.Close()

	r := NewResolver(t.TempDir(), testPolicy())
	res, err := r.Resolve(context.Background(), srv.URL+"/address.json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Kind != KindHTTP {
		t.Errorf("Kind = %s, want %s", res.Kind, KindHTTP)
	}
	if filepath.Ext(res.LocalPath) != ".json" {
		t.Errorf("expected .json extension, got %s", res.LocalPath)
	}
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != `{"title":"Address"}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestResolveHTTPNotFoundFailsFast(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, req)
	}))
	defer srv.Close()

	r := NewResolver(t.TempDir(), testPolicy())
	_, err := r.Resolve(context.Background(), srv.URL+"/gone.json")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if errors.IsRetryable(err) {
		t.Error("404 must not be retryable")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected a single request, got %d", got)
	}
}

func TestResolveHTTPRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := NewResolver(t.TempDir(), testPolicy())
	res, err := r.Resolve(context.Background(), srv.URL+"/flaky.json")
	if err != nil {
		t.Fatalf("resolve after retries: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestResolveHTTPExhaustsRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(t.TempDir(), testPolicy())
	_, err := r.Resolve(context.Background(), srv.URL+"/down.json")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.IsRetryable(err) {
		t.Error("server errors should stay classified retryable")
	}
	// MaxRetries 2 means three attempts in total.
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}
