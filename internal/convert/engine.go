// Package convert turns pending catalog records into package artifacts,
// one record at a time, with per-format tool fallback.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/config"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// Engine converts pending records into artifacts for every enabled format.
type Engine struct {
	formats         []catalog.Format
	chains          map[catalog.Format]Chain
	downloader      *Downloader
	workRoot        string
	extractTimeout  time.Duration
	buildTimeout    time.Duration
	maxPackageBytes int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithChain replaces the fallback chain for one format, used by tests to
// inject fake builders.
func WithChain(format catalog.Format, chain Chain) EngineOption {
	return func(e *Engine) {
		e.chains[format] = chain
	}
}

// WithDownloader replaces the downloader.
func WithDownloader(d *Downloader) EngineOption {
	return func(e *Engine) {
		e.downloader = d
	}
}

// NewEngine creates an engine from configuration with the standard builder
// chains: native tool first, fpm as the cross-architecture fallback, and the
// builtin tarball builder.
func NewEngine(cfg *config.Config, opts ...EngineOption) *Engine {
	workRoot := cfg.Paths.WorkDir
	if workRoot == "" {
		workRoot = os.TempDir()
	}

	e := &Engine{
		formats: cfg.EnabledFormats(),
		chains: map[catalog.Format]Chain{
			catalog.FormatDeb:   {NewDpkgDebBuilder(), NewFpmBuilder(catalog.FormatDeb)},
			catalog.FormatRPM:   {NewRpmbuildBuilder(), NewFpmBuilder(catalog.FormatRPM)},
			catalog.FormatTarGz: {NewTarGzBuilder()},
		},
		downloader: NewDownloader(
			time.Duration(cfg.Conversion.DownloadTimeout)*time.Second,
			cfg.Conversion.MinAppImageBytes,
			cfg.Conversion.MaxAppImageBytes,
		),
		workRoot:        workRoot,
		extractTimeout:  time.Duration(cfg.Conversion.ExtractTimeout) * time.Second,
		buildTimeout:    time.Duration(cfg.Conversion.BuildTimeout) * time.Second,
		maxPackageBytes: cfg.Conversion.MaxPackageBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome carries a converted record and the artifacts awaiting publication.
// Artifact paths live under a temporary directory owned by this record;
// Cleanup must run on every exit path once publishing is done with them.
type Outcome struct {
	App       *catalog.Application
	Artifacts map[catalog.Format]string
	workDir   string
}

// Cleanup removes the record's temporary directory.
func (o *Outcome) Cleanup() {
	if o.workDir != "" {
		if err := os.RemoveAll(o.workDir); err != nil {
			logrus.Warnf("Failed to clean workdir %s: %v", o.workDir, err)
		}
	}
}

// ConvertRecord processes one pending record: download, verify, extract,
// enrich, then build each enabled format independently. Per-format failures
// are recorded on the record, never returned; only record-level hard
// failures (download, integrity, extraction) produce an error, and even then
// the record's statuses are left consistent for the next run to retry.
func (e *Engine) ConvertRecord(ctx context.Context, app *catalog.Application) (outcome *Outcome, err error) {
	workDir := filepath.Join(e.workRoot, "appbinhub-"+uuid.NewString(), app.ID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, &catalog.PipelineError{Type: catalog.ErrBuild, App: app.ID, Err: err}
	}

	outcome = &Outcome{
		App:       app,
		Artifacts: make(map[catalog.Format]string),
		workDir:   filepath.Dir(workDir),
	}
	defer func(o *Outcome) {
		if err != nil {
			o.Cleanup()
		}
	}(outcome)

	logrus.Infof("Converting %s %s (%s)", app.ID, app.Version, app.Architecture)

	appimagePath, checksum, err := e.downloader.Fetch(ctx, app.AppImage.URL, workDir, app.AppImage.Checksum)
	if err != nil {
		e.failPending(app)
		kind := catalog.ErrBuild
		if errors.Is(err, catalog.ErrChecksumMismatch) {
			kind = catalog.ErrIntegrity
		}
		return nil, &catalog.PipelineError{Type: kind, App: app.ID, Err: err}
	}
	e.recordArtifactFacts(app, appimagePath, checksum)

	root, err := extractFunc(ctx, appimagePath, app.Architecture, workDir, e.extractTimeout)
	if err != nil {
		if errors.Is(err, errExtractorUnavailable) {
			e.toolUnavailablePending(app)
			return nil, &catalog.PipelineError{Type: catalog.ErrToolMissing, App: app.ID, Err: err}
		}
		e.failPending(app)
		return nil, &catalog.PipelineError{Type: catalog.ErrBuild, App: app.ID, Err: err}
	}

	entry := e.enrich(app, root)

	for _, format := range e.formats {
		if !needsWork(app, format) {
			continue
		}

		chain, ok := e.chains[format]
		if !ok {
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusToolUnavailable})
			continue
		}

		artifact, buildErr := chain.Build(ctx, BuildInput{
			App:       app,
			Root:      root,
			OutputDir: workDir,
			Entry:     entry,
			Timeout:   e.buildTimeout,
		})

		switch {
		case errors.Is(buildErr, catalog.ErrToolUnavailable):
			logrus.Warnf("No tool available for %s/%s: %v", app.ID, format, buildErr)
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusToolUnavailable})

		case buildErr != nil:
			logrus.Errorf("Build failed for %s/%s: %v", app.ID, format, buildErr)
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusFailed})

		default:
			if err := e.checkArtifact(format, artifact, app); err != nil {
				logrus.Errorf("Validation failed for %s/%s: %v", app.ID, format, err)
				os.Remove(artifact)
				app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusFailed})
				continue
			}
			// Status flips to available only after the publisher uploads.
			outcome.Artifacts[format] = artifact
		}
	}

	return outcome, nil
}

// checkArtifact validates a built package and enforces the size cap.
func (e *Engine) checkArtifact(format catalog.Format, path string, app *catalog.Application) error {
	if err := ValidateArtifact(format, path, app); err != nil {
		return err
	}
	if e.maxPackageBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() > e.maxPackageBytes {
			return fmt.Errorf("package is %d bytes, above maximum %d", info.Size(), e.maxPackageBytes)
		}
	}
	return nil
}

// recordArtifactFacts stamps verified download facts onto the record.
func (e *Engine) recordArtifactFacts(app *catalog.Application, path, checksum string) {
	app.AppImage.Checksum = checksum
	if info, err := os.Stat(path); err == nil {
		app.AppImage.SizeBytes = info.Size()
		app.AppImage.Size = utils.HumanSize(info.Size())
	}
}

// enrich fills record display metadata from the extracted desktop entry.
func (e *Engine) enrich(app *catalog.Application, root string) *DesktopEntry {
	entry, err := ParseDesktopEntry(root)
	if err != nil {
		logrus.Warnf("Desktop entry parse failed for %s: %v", app.ID, err)
	}
	if entry == nil {
		app.Desktop.ExtractionSkipped = true
		return nil
	}

	if app.Name == "" || app.Name == app.BaseID {
		if entry.Name != "" {
			app.Name = entry.Name
		}
	}
	if app.Description == "" {
		app.Description = entry.Comment
	}
	if len(app.Category) == 0 && len(entry.Categories) > 0 {
		app.Category = config.MapDesktopCategories(entry.Categories)
	}
	app.Desktop = catalog.DesktopMeta{
		Icon:       entry.IconPath,
		Executable: entry.Exec,
		MimeTypes:  entry.MimeTypes,
	}
	return entry
}

// needsWork reports whether a format still requires a build attempt.
func needsWork(app *catalog.Application, format catalog.Format) bool {
	pkg, ok := app.ConvertedPackages[format]
	if !ok || pkg == nil {
		return true
	}
	return pkg.Status == catalog.StatusPending
}

// failPending marks every format still awaiting work as failed, used for
// record-level hard failures such as checksum mismatches.
func (e *Engine) failPending(app *catalog.Application) {
	for _, format := range e.formats {
		if needsWork(app, format) {
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusFailed})
		}
	}
	app.RefreshStatus(e.formats)
}

// toolUnavailablePending marks every format still awaiting work as
// tool_unavailable, used when no extractor exists on this worker.
func (e *Engine) toolUnavailablePending(app *catalog.Application) {
	for _, format := range e.formats {
		if needsWork(app, format) {
			app.SetPackageResult(format, &catalog.PackageArtifact{Status: catalog.StatusToolUnavailable})
		}
	}
	app.RefreshStatus(e.formats)
}

