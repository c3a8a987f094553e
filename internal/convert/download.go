package convert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

const (
	downloadAttempts = 3
	downloadDelay    = 5 * time.Second
)

// Downloader fetches AppImages into record-scoped temporary locations and
// verifies their integrity.
type Downloader struct {
	client   *http.Client
	minBytes int64
	maxBytes int64
}

// NewDownloader creates a downloader with the given overall timeout and
// AppImage size bounds (zero disables a bound).
func NewDownloader(timeout time.Duration, minBytes, maxBytes int64) *Downloader {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Downloader{
		client:   &http.Client{Timeout: timeout},
		minBytes: minBytes,
		maxBytes: maxBytes,
	}
}

// Fetch downloads an AppImage into dir and returns its path along with the
// verified catalog checksum. When expectedChecksum is non-empty the download
// must match it; otherwise the computed digest becomes canonical. Transport
// errors are retried with backoff; integrity errors are not.
func (d *Downloader) Fetch(ctx context.Context, rawURL, dir, expectedChecksum string) (string, string, error) {
	dest := filepath.Join(dir, downloadFilename(rawURL))

	err := retry.Do(
		func() error {
			return d.fetchOnce(ctx, rawURL, dest)
		},
		retry.Attempts(downloadAttempts),
		retry.Delay(downloadDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("Download attempt %d for %s failed: %v", n+1, rawURL, err)
		}),
	)
	if err != nil {
		return "", "", fmt.Errorf("download %s: %w", rawURL, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", "", err
	}
	if d.minBytes > 0 && info.Size() < d.minBytes {
		return "", "", fmt.Errorf("%w: AppImage is %d bytes, below minimum %d", catalog.ErrChecksumMismatch, info.Size(), d.minBytes)
	}
	if d.maxBytes > 0 && info.Size() > d.maxBytes {
		return "", "", fmt.Errorf("AppImage is %d bytes, above maximum %d", info.Size(), d.maxBytes)
	}

	if expectedChecksum != "" {
		if err := utils.VerifySHA256(dest, expectedChecksum); err != nil {
			return "", "", fmt.Errorf("%w: %v", catalog.ErrChecksumMismatch, err)
		}
		return dest, expectedChecksum, nil
	}

	checksum, err := utils.CatalogChecksum(dest)
	if err != nil {
		return "", "", err
	}
	return dest, checksum, nil
}

func (d *Downloader) fetchOnce(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.Unrecoverable(err)
		}
		return err
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return retry.Unrecoverable(err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// downloadFilename derives a local filename from the download URL, ensuring
// the AppImage suffix survives query strings and redirects.
func downloadFilename(rawURL string) string {
	name := "download.AppImage"
	if parsed, err := url.Parse(rawURL); err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" {
			name = base
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".appimage") {
		name += ".AppImage"
	}
	return name
}
