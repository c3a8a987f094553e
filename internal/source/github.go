package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

const defaultGitHubBaseURL = "https://api.github.com"

// userAgent identifies the pipeline to upstream APIs.
const userAgent = "AppBinHub/1.0 (+https://github.com/DevelopmentCats/AppBinHub)"

// GitHubSource discovers AppImage assets attached to the latest release of
// configured repositories. It tracks the API quota and abstains from further
// calls once the remaining allowance drops below the safety threshold.
type GitHubSource struct {
	repositories []string
	token        string
	baseURL      string
	threshold    int
	httpClient   *http.Client

	// remaining is the last quota figure reported by the API; -1 until the
	// first response arrives.
	remaining int
}

// GitHubOption configures a GitHubSource.
type GitHubOption func(*GitHubSource)

// WithGitHubBaseURL overrides the API endpoint, used by tests.
func WithGitHubBaseURL(baseURL string) GitHubOption {
	return func(s *GitHubSource) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			s.baseURL = trimmed
		}
	}
}

// WithGitHubHTTPClient overrides the default HTTP client.
func WithGitHubHTTPClient(client *http.Client) GitHubOption {
	return func(s *GitHubSource) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewGitHubSource creates a source over the given "owner/repo" list.
func NewGitHubSource(repositories []string, token string, threshold int, timeout time.Duration, opts ...GitHubOption) *GitHubSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &GitHubSource{
		repositories: repositories,
		token:        token,
		baseURL:      defaultGitHubBaseURL,
		threshold:    threshold,
		httpClient:   &http.Client{Timeout: timeout},
		remaining:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *GitHubSource) Name() string {
	return fmt.Sprintf("github(%d repositories)", len(s.repositories))
}

type githubAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Digest             string `json:"digest"`
}

type githubRelease struct {
	TagName     string        `json:"tag_name"`
	PublishedAt time.Time     `json:"published_at"`
	Prerelease  bool          `json:"prerelease"`
	Draft       bool          `json:"draft"`
	Assets      []githubAsset `json:"assets"`
}

type githubRateLimit struct {
	Resources struct {
		Core struct {
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// Discover implements Source. Candidates gathered before the quota threshold
// is hit are returned alongside ErrRateLimited so partial progress commits.
func (s *GitHubSource) Discover(ctx context.Context) ([]Candidate, error) {
	if len(s.repositories) == 0 {
		return nil, nil
	}

	if err := s.checkRateLimit(ctx); err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, repo := range s.repositories {
		if s.remaining >= 0 && s.remaining < s.threshold {
			return candidates, fmt.Errorf("%w: %d requests remaining", catalog.ErrRateLimited, s.remaining)
		}

		repoCandidates, err := s.discoverRepository(ctx, repo)
		if err != nil {
			// One repository failing must not abort the rest.
			logrus.Errorf("Error fetching releases for %s: %v", repo, err)
			continue
		}
		candidates = append(candidates, repoCandidates...)
	}

	return candidates, nil
}

func (s *GitHubSource) discoverRepository(ctx context.Context, repo string) ([]Candidate, error) {
	var releases []githubRelease
	if err := s.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases?per_page=10", s.baseURL, repo), &releases); err != nil {
		return nil, err
	}

	release := latestRelease(releases)
	if release == nil {
		logrus.Debugf("No published releases in %s", repo)
		return nil, nil
	}

	var candidates []Candidate
	for _, asset := range release.Assets {
		if !strings.HasSuffix(strings.ToLower(asset.Name), ".appimage") {
			continue
		}

		arch := DetectArchFromURL(asset.Name)
		baseID := strings.ToLower(strings.ReplaceAll(repo, "/", "-"))
		candidates = append(candidates, Candidate{
			AppID:        fmt.Sprintf("%s-%s", baseID, arch),
			BaseID:       baseID,
			Name:         strings.TrimSuffix(asset.Name, ".AppImage"),
			Architecture: arch,
			Version:      release.TagName,
			DownloadURL:  asset.BrowserDownloadURL,
			Size:         asset.Size,
			Checksum:     normalizeDigest(asset.Digest),
			Source: catalog.SourceInfo{
				Repository:  "https://github.com/" + repo,
				ReleaseTag:  release.TagName,
				ReleaseDate: release.PublishedAt.UTC().Format(time.RFC3339),
			},
		})
	}

	if len(candidates) == 0 {
		logrus.Infof("No AppImage assets found in %s release %s", repo, release.TagName)
	}
	return candidates, nil
}

// latestRelease picks the newest non-draft, non-prerelease entry.
func latestRelease(releases []githubRelease) *githubRelease {
	for i := range releases {
		if releases[i].Draft || releases[i].Prerelease {
			continue
		}
		return &releases[i]
	}
	return nil
}

// checkRateLimit queries the quota endpoint before the run starts touching
// repositories. The quota endpoint itself does not count against the quota.
func (s *GitHubSource) checkRateLimit(ctx context.Context) error {
	var limit githubRateLimit
	if err := s.getJSON(ctx, s.baseURL+"/rate_limit", &limit); err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	s.remaining = limit.Resources.Core.Remaining
	logrus.Infof("GitHub API rate limit: %d requests remaining", s.remaining)

	if s.remaining < s.threshold {
		return fmt.Errorf("%w: %d requests remaining (threshold %d)", catalog.ErrRateLimited, s.remaining, s.threshold)
	}
	return nil
}

func (s *GitHubSource) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if value, err := strconv.Atoi(remaining); err == nil {
			s.remaining = value
		}
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d from %s", catalog.ErrRateLimited, resp.StatusCode, url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// normalizeDigest converts the release asset digest field ("sha256:<hex>")
// to the catalog's checksum form, discarding non-sha256 digests.
func normalizeDigest(digest string) string {
	digest = strings.TrimSpace(digest)
	if digest == "" || !strings.HasPrefix(digest, "sha256:") {
		return ""
	}
	return digest
}
