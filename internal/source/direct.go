package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/config"
)

// DirectSource discovers releases through a vendor "latest artifact" API
// returning a version and a direct download URL per architecture.
type DirectSource struct {
	endpoints  []config.DirectEndpoint
	httpClient *http.Client
}

// NewDirectSource creates a source over the configured endpoints.
func NewDirectSource(endpoints []config.DirectEndpoint, timeout time.Duration) *DirectSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DirectSource{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Source.
func (s *DirectSource) Name() string {
	return fmt.Sprintf("direct(%d endpoints)", len(s.endpoints))
}

// directResponse models the vendor latest-artifact payload. Vendors disagree
// on the URL field name, so both spellings are accepted.
type directResponse struct {
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
	URL         string `json:"url"`
	CommitSHA   string `json:"commitSha"`
	SHA256      string `json:"sha256"`
}

// Discover implements Source. Each endpoint is queried once per configured
// architecture; a failing endpoint is skipped.
func (s *DirectSource) Discover(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	for _, endpoint := range s.endpoints {
		for _, arch := range endpoint.Architectures {
			arch = NormalizeArch(arch)
			candidate, err := s.fetch(ctx, endpoint, arch)
			if err != nil {
				logrus.Errorf("Direct endpoint %s (%s) failed: %v", endpoint.ID, arch, err)
				continue
			}
			candidates = append(candidates, *candidate)
		}
	}
	return candidates, nil
}

func (s *DirectSource) fetch(ctx context.Context, endpoint config.DirectEndpoint, arch string) (*Candidate, error) {
	apiURL := strings.ReplaceAll(endpoint.APIURL, "{arch}", arch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, apiURL)
	}

	var payload directResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed response from %s: %w", apiURL, err)
	}

	downloadURL := payload.DownloadURL
	if downloadURL == "" {
		downloadURL = payload.URL
	}
	if !IsAppImageURL(downloadURL) {
		return nil, fmt.Errorf("invalid or missing AppImage URL in response from %s", apiURL)
	}

	if detected := DetectArchFromURL(downloadURL); detected != arch {
		logrus.Warnf("Architecture mismatch for %s: expected %s, detected %s", endpoint.ID, arch, detected)
	}

	version := payload.Version
	if version == "" {
		version = "latest"
	}

	checksum := ""
	if payload.SHA256 != "" {
		checksum = "sha256:" + strings.TrimPrefix(payload.SHA256, "sha256:")
	}

	var category []string
	if endpoint.Category != "" {
		category = []string{endpoint.Category}
	}

	return &Candidate{
		AppID:        fmt.Sprintf("%s-%s", endpoint.ID, arch),
		BaseID:       endpoint.ID,
		Name:         fmt.Sprintf("%s (%s)", endpoint.Name, arch),
		Description:  endpoint.Description,
		Category:     category,
		Architecture: arch,
		Version:      version,
		DownloadURL:  downloadURL,
		Size:         s.headSize(ctx, downloadURL),
		Checksum:     checksum,
		Source: catalog.SourceInfo{
			APIURL:      apiURL,
			Website:     endpoint.Website,
			CommitSHA:   payload.CommitSHA,
			ReleaseDate: catalog.Timestamp(),
		},
	}, nil
}

// headSize asks the download host for the artifact size; zero when unknown.
func (s *DirectSource) headSize(ctx context.Context, url string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logrus.Debugf("HEAD %s failed: %v", url, err)
		return 0
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}
