package diff

import (
	"testing"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/source"
)

var testFormats = []catalog.Format{catalog.FormatDeb, catalog.FormatRPM, catalog.FormatTarGz}

func candidate(id, version string) source.Candidate {
	return source.Candidate{
		AppID:        id,
		BaseID:       "foo",
		Name:         "Foo",
		Architecture: "x86_64",
		Version:      version,
		DownloadURL:  "https://example.com/Foo-" + version + "-x86_64.AppImage",
		Size:         5 * 1024 * 1024,
		Source:       catalog.SourceInfo{Repository: "example/foo", ReleaseTag: "v" + version},
	}
}

func TestReconcileAddsNewRecord(t *testing.T) {
	cat := catalog.NewCatalog()

	result := Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "1.0.0")}, testFormats)

	if result.Added != 1 {
		t.Fatalf("Added = %d, want 1", result.Added)
	}
	app := cat.Find("foo-x86_64")
	if app == nil {
		t.Fatal("record not inserted")
	}
	if app.ConversionStatus != catalog.RecordPending {
		t.Errorf("status = %s, want pending", app.ConversionStatus)
	}
	if len(app.ConvertedPackages) != len(testFormats) {
		t.Errorf("ConvertedPackages has %d entries, want %d", len(app.ConvertedPackages), len(testFormats))
	}
	if app.AppImage.URL == "" || app.AppImage.Size == "" {
		t.Errorf("appimage artifact incomplete: %+v", app.AppImage)
	}
}

func TestReconcileVersionChangeReplacesRecord(t *testing.T) {
	cat := catalog.NewCatalog()
	Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "1.0.0")}, testFormats)

	// Simulate a fully converted 1.0.0 record.
	app := cat.Find("foo-x86_64")
	for _, f := range testFormats {
		app.MarkPublished(f, "https://example.com/old."+f.Extension(), "sha256:old", 100)
	}
	app.RefreshStatus(testFormats)
	if app.ConversionStatus != catalog.RecordCompleted {
		t.Fatalf("setup: status = %s", app.ConversionStatus)
	}

	result := Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "2.0.0")}, testFormats)

	if result.Replaced != 1 {
		t.Fatalf("Replaced = %d, want 1", result.Replaced)
	}
	app = cat.Find("foo-x86_64")
	if app.Version != "2.0.0" {
		t.Errorf("version = %s, want 2.0.0", app.Version)
	}
	if app.ConversionStatus != catalog.RecordPending {
		t.Errorf("status = %s, want pending", app.ConversionStatus)
	}
	for format, pkg := range app.ConvertedPackages {
		if pkg.URL != "" || pkg.Checksum != "" {
			t.Errorf("%s carried artifacts from the old version: %+v", format, pkg)
		}
		if pkg.Status != catalog.StatusPending {
			t.Errorf("%s status = %s, want pending", format, pkg.Status)
		}
	}
}

func TestReconcileCompletedSameVersionIsIdempotent(t *testing.T) {
	cat := catalog.NewCatalog()
	Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "1.0.0")}, testFormats)

	app := cat.Find("foo-x86_64")
	for _, f := range testFormats {
		app.MarkPublished(f, "https://example.com/foo."+f.Extension(), "sha256:abc", 100)
	}
	app.RefreshStatus(testFormats)

	result := Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "1.0.0")}, testFormats)

	if result.Unchanged != 1 || result.Added != 0 || result.Replaced != 0 || result.Retried != 0 {
		t.Errorf("result = %+v, want unchanged only", result)
	}
	app = cat.Find("foo-x86_64")
	if app.ConversionStatus != catalog.RecordCompleted {
		t.Errorf("status = %s, want completed", app.ConversionStatus)
	}
	if app.ConvertedPackages[catalog.FormatDeb].URL == "" {
		t.Error("idempotent pass dropped published artifact data")
	}
}

func TestReconcileRearmsFailedFormats(t *testing.T) {
	cat := catalog.NewCatalog()
	Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "1.0.0")}, testFormats)

	app := cat.Find("foo-x86_64")
	app.MarkPublished(catalog.FormatDeb, "https://example.com/foo.deb", "sha256:abc", 100)
	app.SetPackageResult(catalog.FormatRPM, &catalog.PackageArtifact{Status: catalog.StatusFailed})
	app.SetPackageResult(catalog.FormatTarGz, &catalog.PackageArtifact{Status: catalog.StatusToolUnavailable})
	app.RefreshStatus(testFormats)
	if app.ConversionStatus != catalog.RecordFailed {
		t.Fatalf("setup: status = %s", app.ConversionStatus)
	}

	result := Reconcile(cat, []source.Candidate{candidate("foo-x86_64", "1.0.0")}, testFormats)

	if result.Retried != 1 {
		t.Fatalf("Retried = %d, want 1", result.Retried)
	}
	app = cat.Find("foo-x86_64")
	if app.ConversionStatus != catalog.RecordPending {
		t.Errorf("status = %s, want pending", app.ConversionStatus)
	}
	if got := app.ConvertedPackages[catalog.FormatRPM].Status; got != catalog.StatusPending {
		t.Errorf("failed rpm rearmed to %s, want pending", got)
	}
	// Successful and tool_unavailable entries are left alone.
	if got := app.ConvertedPackages[catalog.FormatDeb].Status; got != catalog.StatusAvailable {
		t.Errorf("available deb became %s", got)
	}
	if got := app.ConvertedPackages[catalog.FormatTarGz].Status; got != catalog.StatusToolUnavailable {
		t.Errorf("tool_unavailable tar.gz became %s", got)
	}
}

func TestDedupePrefersHigherVersion(t *testing.T) {
	low := candidate("foo-x86_64", "1.2.0")
	high := candidate("foo-x86_64", "1.10.0")

	cat := catalog.NewCatalog()
	Reconcile(cat, []source.Candidate{low, high}, testFormats)

	if got := cat.Find("foo-x86_64").Version; got != "1.10.0" {
		t.Errorf("version = %s, want 1.10.0", got)
	}
}

func TestDedupeTieBreaksOnReleaseDate(t *testing.T) {
	older := candidate("foo-x86_64", "1.0.0")
	older.Source.ReleaseDate = "2026-01-01T00:00:00Z"
	newer := candidate("foo-x86_64", "1.0.0")
	newer.Source.ReleaseDate = "2026-06-01T00:00:00Z"
	newer.DownloadURL = "https://example.com/newer.AppImage"

	cat := catalog.NewCatalog()
	Reconcile(cat, []source.Candidate{older, newer}, testFormats)

	if got := cat.Find("foo-x86_64").AppImage.URL; got != newer.DownloadURL {
		t.Errorf("URL = %s, want the later release", got)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"2.0.0", "1.9.9", 1},
		{"1.2.0", "1.10.0", -1},
		{"v1.2.3", "1.2.2", 1},
		{"1.0.0-rc1", "1.0.0", -1},
		{"nightly-b", "nightly-a", 1},
		{"abc", "abc", 0},
	}

	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
