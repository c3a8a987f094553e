package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/convert"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

var publishFormats = []catalog.Format{catalog.FormatDeb, catalog.FormatTarGz}

func publishableApp() *catalog.Application {
	app := &catalog.Application{
		ID:           "foo-x86_64",
		BaseID:       "foo",
		Name:         "Foo",
		Version:      "1.2.3",
		Architecture: "x86_64",
	}
	app.ResetPackages(publishFormats)
	return app
}

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssetKey(t *testing.T) {
	app := publishableApp()
	if got := AssetKey(app, catalog.FormatDeb); got != "foo-x86_64_1.2.3_x86_64.deb" {
		t.Errorf("AssetKey = %q", got)
	}

	app.Version = "nightly build/3"
	if got := AssetKey(app, catalog.FormatTarGz); got != "foo-x86_64_nightly-build-3_x86_64.tar.gz" {
		t.Errorf("AssetKey with hostile version = %q", got)
	}
}

func TestLocalStorePutAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "https://assets.example.com/packages/")

	first := writeArtifact(t, "foo.deb", "first build")
	url, err := store.Put(context.Background(), "foo-x86_64", "foo.deb", first)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://assets.example.com/packages/foo-x86_64/foo.deb" {
		t.Errorf("url = %q", url)
	}

	// Same key again replaces the stored bytes.
	second := writeArtifact(t, "foo.deb", "second build")
	if _, err := store.Put(context.Background(), "foo-x86_64", "foo.deb", second); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	stored, err := os.ReadFile(filepath.Join(dir, "foo-x86_64", "foo.deb"))
	if err != nil {
		t.Fatal(err)
	}
	if string(stored) != "second build" {
		t.Errorf("stored content = %q, want the replacement", stored)
	}
}

func TestPublishOutcomeFinalizesRecord(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "./converted_packages")
	publisher := NewPublisher(store, nil, publishFormats, nil)

	app := publishableApp()
	debPath := writeArtifact(t, "foo.deb", "deb bytes")
	tarPath := writeArtifact(t, "foo.tar.gz", "tar bytes")

	publisher.PublishOutcome(context.Background(), &convert.Outcome{
		App: app,
		Artifacts: map[catalog.Format]string{
			catalog.FormatDeb:   debPath,
			catalog.FormatTarGz: tarPath,
		},
	})

	if app.ConversionStatus != catalog.RecordCompleted {
		t.Errorf("status = %s, want completed", app.ConversionStatus)
	}
	for _, format := range publishFormats {
		pkg := app.ConvertedPackages[format]
		if pkg.Status != catalog.StatusAvailable {
			t.Errorf("%s status = %s, want available", format, pkg.Status)
		}
		if pkg.URL == "" || pkg.Created == "" {
			t.Errorf("%s entry incomplete: %+v", format, pkg)
		}
		if !strings.HasPrefix(pkg.Checksum, utils.ChecksumPrefix) {
			t.Errorf("%s checksum = %q, want %s prefix", format, pkg.Checksum, utils.ChecksumPrefix)
		}
	}

	// The recorded checksum matches the stored bytes.
	sums, err := utils.CalculateChecksums(debPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := app.ConvertedPackages[catalog.FormatDeb].Checksum; got != utils.ChecksumPrefix+sums.SHA256 {
		t.Errorf("deb checksum = %q, want %q", got, utils.ChecksumPrefix+sums.SHA256)
	}
}

// failingStore rejects every upload.
type failingStore struct{}

func (failingStore) Put(context.Context, string, string, string) (string, error) {
	return "", errors.New("storage offline")
}

func TestPublishOutcomeUploadFailure(t *testing.T) {
	publisher := NewPublisher(failingStore{}, nil, publishFormats, nil)

	app := publishableApp()
	debPath := writeArtifact(t, "foo.deb", "deb bytes")

	publisher.PublishOutcome(context.Background(), &convert.Outcome{
		App:       app,
		Artifacts: map[catalog.Format]string{catalog.FormatDeb: debPath},
	})

	pkg := app.ConvertedPackages[catalog.FormatDeb]
	if pkg.Status != catalog.StatusFailed {
		t.Errorf("deb status = %s, want failed", pkg.Status)
	}
	// No URL may appear without a stored artifact behind it.
	if pkg.URL != "" || pkg.Checksum != "" {
		t.Errorf("failed upload left artifact data: %+v", pkg)
	}
	if app.ConversionStatus == catalog.RecordCompleted {
		t.Error("record completed despite failed upload")
	}
}

func TestCommitWritesThroughCatalogStore(t *testing.T) {
	catalogStore := catalog.NewStore(filepath.Join(t.TempDir(), "applications.json"))
	publisher := NewPublisher(NewLocalStore(t.TempDir(), "x"), catalogStore, publishFormats, nil)

	app := publishableApp()
	if err := publisher.Commit(context.Background(), "x86_64", []*catalog.Application{app}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	c, err := catalogStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Find("foo-x86_64") == nil {
		t.Error("committed record not found in catalog")
	}

	// Empty batches commit nothing and succeed.
	if err := publisher.Commit(context.Background(), "x86_64", nil); err != nil {
		t.Errorf("empty Commit: %v", err)
	}
}
