package catalog

import (
	"testing"
)

var allFormats = []Format{FormatDeb, FormatRPM, FormatTarGz}

func TestAggregateStatusCompleted(t *testing.T) {
	packages := map[Format]*PackageArtifact{
		FormatDeb:   {Status: StatusAvailable},
		FormatRPM:   {Status: StatusToolUnavailable},
		FormatTarGz: {Status: StatusAvailable},
	}

	if got := AggregateStatus(packages, allFormats); got != RecordCompleted {
		t.Errorf("AggregateStatus = %s, want completed", got)
	}
}

func TestAggregateStatusFailed(t *testing.T) {
	packages := map[Format]*PackageArtifact{
		FormatDeb:   {Status: StatusFailed},
		FormatRPM:   {Status: StatusAvailable},
		FormatTarGz: {Status: StatusToolUnavailable},
	}

	if got := AggregateStatus(packages, allFormats); got != RecordFailed {
		t.Errorf("AggregateStatus = %s, want failed", got)
	}
}

func TestAggregateStatusPendingWhileWorkRemains(t *testing.T) {
	// A failed format does not settle the record while another is pending.
	packages := map[Format]*PackageArtifact{
		FormatDeb:   {Status: StatusFailed},
		FormatRPM:   {Status: StatusPending},
		FormatTarGz: {Status: StatusAvailable},
	}

	if got := AggregateStatus(packages, allFormats); got != RecordPending {
		t.Errorf("AggregateStatus = %s, want pending", got)
	}
}

func TestAggregateStatusMissingEntryIsPending(t *testing.T) {
	packages := map[Format]*PackageArtifact{
		FormatDeb: {Status: StatusAvailable},
	}

	if got := AggregateStatus(packages, allFormats); got != RecordPending {
		t.Errorf("AggregateStatus = %s, want pending", got)
	}
}

func TestAggregateStatusAllToolUnavailable(t *testing.T) {
	packages := map[Format]*PackageArtifact{
		FormatDeb:   {Status: StatusToolUnavailable},
		FormatRPM:   {Status: StatusToolUnavailable},
		FormatTarGz: {Status: StatusToolUnavailable},
	}

	if got := AggregateStatus(packages, allFormats); got != RecordCompleted {
		t.Errorf("AggregateStatus = %s, want completed", got)
	}
}

func TestResetPackagesDropsArtifacts(t *testing.T) {
	app := &Application{
		ID:      "foo-x86_64",
		Version: "2.0.0",
		ConvertedPackages: map[Format]*PackageArtifact{
			FormatDeb: {
				URL:      "https://example.com/foo_1.0.0_amd64.deb",
				Checksum: "sha256:abc",
				Status:   StatusAvailable,
			},
		},
		ConversionStatus: RecordCompleted,
	}

	app.ResetPackages(allFormats)

	if app.ConversionStatus != RecordPending {
		t.Errorf("ConversionStatus = %s, want pending", app.ConversionStatus)
	}
	if len(app.ConvertedPackages) != len(allFormats) {
		t.Fatalf("ConvertedPackages has %d entries, want %d", len(app.ConvertedPackages), len(allFormats))
	}
	for format, pkg := range app.ConvertedPackages {
		if pkg.Status != StatusPending {
			t.Errorf("%s status = %s, want pending", format, pkg.Status)
		}
		if pkg.URL != "" || pkg.Checksum != "" {
			t.Errorf("%s carried stale artifact data: %+v", format, pkg)
		}
	}
}

func TestSetPackageResultStripsDataFromNonSuccess(t *testing.T) {
	app := &Application{ID: "foo-x86_64"}

	app.SetPackageResult(FormatDeb, &PackageArtifact{
		URL:    "https://example.com/leftover.deb",
		Status: StatusFailed,
	})

	pkg := app.ConvertedPackages[FormatDeb]
	if pkg.Status != StatusFailed {
		t.Errorf("status = %s, want failed", pkg.Status)
	}
	if pkg.URL != "" {
		t.Errorf("failed entry kept a URL: %q", pkg.URL)
	}
}

func TestMarkPublished(t *testing.T) {
	app := &Application{ID: "foo-x86_64"}

	app.MarkPublished(FormatDeb, "https://example.com/foo.deb", "sha256:abc", 2048)

	pkg := app.ConvertedPackages[FormatDeb]
	if pkg.Status != StatusAvailable {
		t.Errorf("status = %s, want available", pkg.Status)
	}
	if pkg.URL == "" || pkg.Checksum == "" || pkg.Created == "" {
		t.Errorf("published entry incomplete: %+v", pkg)
	}
	if pkg.SizeBytes != 2048 {
		t.Errorf("SizeBytes = %d, want 2048", pkg.SizeBytes)
	}
	if pkg.Size != "2.0 KB" {
		t.Errorf("Size = %q, want 2.0 KB", pkg.Size)
	}
}
