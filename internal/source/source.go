// Package source discovers upstream AppImage releases and normalizes them
// into candidate records for the diff engine.
package source

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// Candidate is a normalized upstream release for one (app, architecture)
// pair, not yet admitted to the catalog.
type Candidate struct {
	AppID        string
	BaseID       string
	Name         string
	Description  string
	Category     []string
	Architecture string
	Version      string
	DownloadURL  string
	Size         int64
	// Checksum is the upstream-supplied sha256 when the source provides
	// one; empty means the conversion engine computes the canonical digest
	// after download.
	Checksum string
	Source   catalog.SourceInfo
}

// Source produces candidate releases from one configured upstream.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Discover returns the candidates currently advertised upstream.
	// Re-running returns the same candidates unless upstream changed.
	Discover(ctx context.Context) ([]Candidate, error)
}

// Discover runs every source, collecting candidates. A failing source is
// logged and skipped so it cannot abort discovery for its siblings. A
// rate-limited source additionally stops discovery for sources sharing the
// same API, keeping candidates gathered so far.
func Discover(ctx context.Context, sources []Source) []Candidate {
	var candidates []Candidate
	rateLimited := false

	for _, src := range sources {
		if rateLimited {
			if _, ok := src.(*GitHubSource); ok {
				logrus.Warnf("Skipping source %s: rate limit threshold reached", src.Name())
				continue
			}
		}

		found, err := src.Discover(ctx)
		if err != nil {
			if errors.Is(err, catalog.ErrRateLimited) {
				logrus.Warnf("Source %s stopped early: %v", src.Name(), err)
				rateLimited = true
			} else {
				logrus.Errorf("Source %s failed: %v", src.Name(), err)
			}
			// Partial results from a failed source are still usable.
		}
		candidates = append(candidates, found...)
	}

	logrus.Infof("Discovery finished: %d candidates from %d sources", len(candidates), len(sources))
	return candidates
}
