package catalog

import (
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// ResetPackages puts every enabled format back to pending and drops any
// artifact data carried by the record. Used when a new version replaces an
// old record so stale artifacts never leak forward.
func (a *Application) ResetPackages(formats []Format) {
	a.ConvertedPackages = make(map[Format]*PackageArtifact, len(formats))
	for _, f := range formats {
		a.ConvertedPackages[f] = &PackageArtifact{Status: StatusPending}
	}
	a.ConversionStatus = RecordPending
	a.LastUpdated = Timestamp()
}

// SetPackageResult records the outcome of one format's conversion. The
// artifact fields are only populated for available results, so a URL is never
// visible in the catalog without a verified upload behind it.
func (a *Application) SetPackageResult(format Format, artifact *PackageArtifact) {
	if a.ConvertedPackages == nil {
		a.ConvertedPackages = make(map[Format]*PackageArtifact)
	}
	if artifact.Status != StatusAvailable {
		// Terminal non-success entries carry status only.
		artifact = &PackageArtifact{Status: artifact.Status}
	}
	a.ConvertedPackages[format] = artifact
	a.LastUpdated = Timestamp()
}

// MarkPublished fills in the final artifact data after a successful upload.
func (a *Application) MarkPublished(format Format, url, checksum string, size int64) {
	a.SetPackageResult(format, &PackageArtifact{
		URL:       url,
		Size:      utils.HumanSize(size),
		SizeBytes: size,
		Checksum:  checksum,
		Status:    StatusAvailable,
		Created:   Timestamp(),
	})
}

// RefreshStatus recomputes the aggregate conversion status from the
// per-format entries:
//
//	completed  - every enabled format is available or tool_unavailable
//	failed     - at least one format failed and none is still pending
//	pending    - otherwise
func (a *Application) RefreshStatus(formats []Format) {
	a.ConversionStatus = AggregateStatus(a.ConvertedPackages, formats)
	a.LastUpdated = Timestamp()
}

// AggregateStatus derives a record status from per-format statuses.
func AggregateStatus(packages map[Format]*PackageArtifact, formats []Format) RecordStatus {
	if len(formats) == 0 {
		return RecordPending
	}

	pending := 0
	failed := 0
	for _, f := range formats {
		pkg, ok := packages[f]
		if !ok || pkg == nil {
			pending++
			continue
		}
		switch pkg.Status {
		case StatusAvailable, StatusToolUnavailable:
			// counts toward completion
		case StatusFailed:
			failed++
		default:
			pending++
		}
	}

	switch {
	case pending == 0 && failed == 0:
		return RecordCompleted
	case pending == 0 && failed > 0:
		return RecordFailed
	default:
		return RecordPending
	}
}
