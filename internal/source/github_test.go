package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

func rateLimitHandler(remaining int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"resources":{"core":{"remaining":%d,"reset":0}}}`, remaining)
	}
}

const releasesBody = `[
  {
    "tag_name": "v2.0.0-rc1",
    "published_at": "2026-03-01T00:00:00Z",
    "prerelease": true,
    "draft": false,
    "assets": [
      {"name": "Foo-2.0.0-rc1-x86_64.AppImage", "size": 1048576, "browser_download_url": "https://example.com/rc.AppImage"}
    ]
  },
  {
    "tag_name": "v1.4.0",
    "published_at": "2026-02-01T12:00:00Z",
    "prerelease": false,
    "draft": false,
    "assets": [
      {"name": "Foo-1.4.0-x86_64.AppImage", "size": 2097152, "browser_download_url": "https://example.com/Foo-1.4.0-x86_64.AppImage", "digest": "sha256:abcdef"},
      {"name": "Foo-1.4.0-aarch64.AppImage", "size": 2097152, "browser_download_url": "https://example.com/Foo-1.4.0-aarch64.AppImage"},
      {"name": "Foo-1.4.0.tar.gz", "size": 512, "browser_download_url": "https://example.com/Foo-1.4.0.tar.gz"},
      {"name": "SHA256SUMS", "size": 128, "browser_download_url": "https://example.com/SHA256SUMS"}
    ]
  }
]`

func TestGitHubDiscover(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", rateLimitHandler(4800))
	mux.HandleFunc("/repos/example/foo/releases", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("X-RateLimit-Remaining", "4799")
		fmt.Fprint(w, releasesBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewGitHubSource([]string{"example/foo"}, "test-token", 100, 5*time.Second,
		WithGitHubBaseURL(server.URL))

	candidates, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// Only the AppImage assets of the latest stable release survive.
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(candidates), candidates)
	}

	byArch := make(map[string]Candidate)
	for _, c := range candidates {
		byArch[c.Architecture] = c
	}

	x86 := byArch["x86_64"]
	if x86.AppID != "example-foo-x86_64" {
		t.Errorf("AppID = %q", x86.AppID)
	}
	if x86.Version != "v1.4.0" {
		t.Errorf("version = %q, want v1.4.0 (prerelease must be skipped)", x86.Version)
	}
	if x86.Checksum != "sha256:abcdef" {
		t.Errorf("checksum = %q", x86.Checksum)
	}
	if x86.Source.Repository != "https://github.com/example/foo" {
		t.Errorf("repository = %q", x86.Source.Repository)
	}

	arm := byArch["aarch64"]
	if arm.AppID != "example-foo-aarch64" {
		t.Errorf("aarch64 AppID = %q", arm.AppID)
	}
	if arm.Checksum != "" {
		t.Errorf("aarch64 checksum = %q, want empty (no digest published)", arm.Checksum)
	}
}

func TestGitHubDiscoverAbstainsBelowThreshold(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", rateLimitHandler(42))
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("repository endpoint called despite low quota: %s", r.URL.Path)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewGitHubSource([]string{"example/foo"}, "", 100, 5*time.Second,
		WithGitHubBaseURL(server.URL))

	_, err := src.Discover(context.Background())
	if !errors.Is(err, catalog.ErrRateLimited) {
		t.Fatalf("Discover error = %v, want ErrRateLimited", err)
	}
}

func TestGitHubDiscoverStopsMidRunWithPartialResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", rateLimitHandler(101))
	mux.HandleFunc("/repos/example/foo/releases", func(w http.ResponseWriter, r *http.Request) {
		// Quota header drops below the threshold after the first call.
		w.Header().Set("X-RateLimit-Remaining", "50")
		fmt.Fprint(w, releasesBody)
	})
	mux.HandleFunc("/repos/example/bar/releases", func(w http.ResponseWriter, r *http.Request) {
		t.Error("second repository fetched after quota dropped")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewGitHubSource([]string{"example/foo", "example/bar"}, "", 100, 5*time.Second,
		WithGitHubBaseURL(server.URL))

	candidates, err := src.Discover(context.Background())
	if !errors.Is(err, catalog.ErrRateLimited) {
		t.Fatalf("Discover error = %v, want ErrRateLimited", err)
	}
	if len(candidates) != 2 {
		t.Errorf("got %d candidates, want the first repository's 2", len(candidates))
	}
}

func TestGitHubDiscoverSkipsFailingRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", rateLimitHandler(4800))
	mux.HandleFunc("/repos/example/broken/releases", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/repos/example/foo/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releasesBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewGitHubSource([]string{"example/broken", "example/foo"}, "", 100, 5*time.Second,
		WithGitHubBaseURL(server.URL))

	candidates, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("got %d candidates, want 2 from the healthy repository", len(candidates))
	}
}
