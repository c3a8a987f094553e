package publish

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/convert"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// Publisher uploads conversion outcomes and commits final records to the
// catalog, one architecture partition at a time.
type Publisher struct {
	store   AssetStore
	catalog *catalog.Store
	formats []catalog.Format
	signer  *CatalogSigner
}

// NewPublisher creates a publisher writing through the given stores. The
// signer is optional.
func NewPublisher(store AssetStore, cat *catalog.Store, formats []catalog.Format, signer *CatalogSigner) *Publisher {
	return &Publisher{
		store:   store,
		catalog: cat,
		formats: formats,
		signer:  signer,
	}
}

// PublishOutcome uploads a record's built artifacts and finalizes the
// record's per-format entries. A failed upload leaves that format failed;
// the URL, checksum, and created timestamp are only written after a
// successful upload, so the catalog never links to an artifact that is not
// actually stored.
func (p *Publisher) PublishOutcome(ctx context.Context, outcome *convert.Outcome) {
	app := outcome.App

	for format, artifactPath := range outcome.Artifacts {
		sums, err := utils.CalculateChecksums(artifactPath)
		if err != nil {
			logrus.Errorf("Checksum failed for %s/%s: %v", app.ID, format, err)
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusFailed})
			continue
		}

		url, err := p.store.Put(ctx, app.ID, AssetKey(app, format), artifactPath)
		if err != nil {
			logrus.Errorf("Upload failed for %s/%s: %v", app.ID, format, err)
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusFailed})
			continue
		}

		app.MarkPublished(format, url, utils.ChecksumPrefix+sums.SHA256, sums.Size)
		logrus.Infof("Published %s/%s: %s", app.ID, format, url)
	}

	app.RefreshStatus(p.formats)
}

// Commit merges one architecture's finished records into the latest catalog
// and refreshes the detached signature when signing is configured.
func (p *Publisher) Commit(ctx context.Context, arch string, records []*catalog.Application) error {
	if len(records) == 0 {
		return nil
	}

	if err := p.catalog.CommitRecords(ctx, arch, records); err != nil {
		return err
	}

	if p.signer != nil {
		if err := p.signer.SignFile(p.catalog.Path()); err != nil {
			// Signing failure does not invalidate the committed catalog.
			logrus.Errorf("Catalog signing failed: %v", err)
		}
	}
	return nil
}
