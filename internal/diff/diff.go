// Package diff reconciles discovered candidate releases against the catalog,
// deciding which records need conversion work.
package diff

import (
	"strings"

	"github.com/ImSingee/semver"
	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/source"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Added     int
	Replaced  int
	Retried   int
	Unchanged int
}

// Reconcile applies candidates to the catalog in place. Records already
// completed at the candidate's version are left untouched, which is what
// makes repeated runs idempotent and conversions non-repeating.
func Reconcile(cat *catalog.Catalog, candidates []source.Candidate, formats []catalog.Format) Result {
	var result Result

	for _, candidate := range dedupe(candidates) {
		existing := cat.Find(candidate.AppID)

		switch {
		case existing == nil:
			cat.Upsert(newRecord(candidate, formats))
			result.Added++
			logrus.Infof("New application: %s %s (%s)", candidate.AppID, candidate.Version, candidate.Architecture)

		case existing.Version != candidate.Version:
			// Replace, never merge: stale artifacts from the prior
			// version must not leak into the new record.
			cat.Upsert(newRecord(candidate, formats))
			result.Replaced++
			logrus.Infof("Version change for %s: %s -> %s", candidate.AppID, existing.Version, candidate.Version)

		case existing.ConversionStatus == catalog.RecordCompleted:
			enrich(existing, candidate)
			result.Unchanged++

		default:
			// Same version, not completed: re-arm failed formats so the
			// next conversion run retries them.
			rearm(existing, formats)
			enrich(existing, candidate)
			result.Retried++
			logrus.Infof("Retrying %s %s (%s)", existing.ID, existing.Version, existing.ConversionStatus)
			existing.ConversionStatus = catalog.RecordPending
		}
	}

	return result
}

// dedupe collapses multiple candidates for the same record into the best one.
// Sources rarely race, but when they do, the highest version wins and ties
// break on the most recent release date.
func dedupe(candidates []source.Candidate) []source.Candidate {
	best := make(map[string]source.Candidate)
	var order []string

	for _, candidate := range candidates {
		current, seen := best[candidate.AppID]
		if !seen {
			best[candidate.AppID] = candidate
			order = append(order, candidate.AppID)
			continue
		}
		if betterCandidate(candidate, current) {
			logrus.Warnf("Conflicting candidates for %s: choosing %s over %s", candidate.AppID, candidate.Version, current.Version)
			best[candidate.AppID] = candidate
		}
	}

	out := make([]source.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// betterCandidate reports whether a should replace b.
func betterCandidate(a, b source.Candidate) bool {
	switch CompareVersions(a.Version, b.Version) {
	case 1:
		return true
	case -1:
		return false
	}
	return a.Source.ReleaseDate > b.Source.ReleaseDate
}

// CompareVersions orders two version strings, semver-aware when both parse
// (tag prefixes like "v1.2.3" are handled by the parser). Non-semver
// versions fall back to string comparison so ordering stays total.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}

	va, errA := semver.NewVersion(strings.TrimSpace(a))
	vb, errB := semver.NewVersion(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}

	if a > b {
		return 1
	}
	return -1
}

// newRecord builds a fresh pending record from a candidate.
func newRecord(candidate source.Candidate, formats []catalog.Format) *catalog.Application {
	app := &catalog.Application{
		ID:           candidate.AppID,
		BaseID:       candidate.BaseID,
		Name:         candidate.Name,
		Description:  candidate.Description,
		Version:      candidate.Version,
		Architecture: candidate.Architecture,
		Category:     candidate.Category,
		AppImage: catalog.AppImageArtifact{
			URL:          candidate.DownloadURL,
			Size:         sizeString(candidate.Size),
			SizeBytes:    candidate.Size,
			Checksum:     candidate.Checksum,
			Architecture: candidate.Architecture,
		},
		Source: candidate.Source,
	}
	app.ResetPackages(formats)
	return app
}

// enrich fills display fields the conversion pipeline may not have had when
// the record was created. Conversion state is never touched here.
func enrich(app *catalog.Application, candidate source.Candidate) {
	if app.Name == "" {
		app.Name = candidate.Name
	}
	if app.Description == "" {
		app.Description = candidate.Description
	}
	if len(app.Category) == 0 {
		app.Category = candidate.Category
	}
}

// rearm resets failed formats to pending and adds entries for formats
// enabled since the record was created.
func rearm(app *catalog.Application, formats []catalog.Format) {
	if app.ConvertedPackages == nil {
		app.ConvertedPackages = make(map[catalog.Format]*catalog.PackageArtifact, len(formats))
	}
	for _, format := range formats {
		pkg, ok := app.ConvertedPackages[format]
		if !ok || pkg == nil || pkg.Status == catalog.StatusFailed {
			app.ConvertedPackages[format] = &catalog.PackageArtifact{Status: catalog.StatusPending}
		}
	}
}

func sizeString(size int64) string {
	if size <= 0 {
		return ""
	}
	return utils.HumanSize(size)
}
