package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/config"
	"github.com/DevelopmentCats/AppBinHub/internal/convert"
	"github.com/DevelopmentCats/AppBinHub/internal/publish"
	"github.com/DevelopmentCats/AppBinHub/internal/source"
)

// NewConvertCmd creates the convert command
func NewConvertCmd() *cobra.Command {
	var arch string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert pending records into packages and publish them",
		Long: `Processes every catalog record awaiting conversion: downloads the
AppImage, verifies its checksum, extracts it, builds each enabled
package format through the tool fallback chain, and publishes the
results.

With --arch, only records of that architecture are processed; parallel
workers for different architectures can run concurrently against the
same catalog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cfg, arch)
		},
	}

	cmd.Flags().StringVar(&arch, "arch", "", "Restrict conversion to one architecture (e.g. x86_64)")

	return cmd
}

func runConvert(ctx context.Context, cfg *config.Config, arch string) error {
	if arch != "" {
		arch = source.NormalizeArch(arch)
		if !contains(cfg.Conversion.Architectures, arch) {
			return fmt.Errorf("architecture %q is not enabled in configuration", arch)
		}
	}

	store := catalog.NewStore(cfg.CatalogPath())
	engine := convert.NewEngine(cfg)
	publisher, err := buildPublisher(cfg, store)
	if err != nil {
		return err
	}

	archs := cfg.Conversion.Architectures
	if arch != "" {
		archs = []string{arch}
	}

	for _, workerArch := range archs {
		if err := convertPartition(ctx, store, engine, publisher, workerArch); err != nil {
			return err
		}
	}
	return nil
}

// convertPartition processes one architecture's pending records and commits
// them as a single merge into the latest catalog.
func convertPartition(ctx context.Context, store *catalog.Store, engine *convert.Engine, publisher *publish.Publisher, arch string) error {
	c, err := store.Load()
	if err != nil {
		return err
	}

	pending := c.Pending(arch)
	if len(pending) == 0 {
		logrus.Infof("No applications pending conversion for %s", arch)
		return nil
	}
	logrus.Infof("Found %d applications to convert for %s", len(pending), arch)

	converted := 0
	failed := 0
	var processed []*catalog.Application

	for _, app := range pending {
		if err := ctx.Err(); err != nil {
			// A cancelled run commits what finished; pending records
			// are retried by the next run.
			break
		}

		outcome, err := engine.ConvertRecord(ctx, app)
		if err != nil {
			logrus.Errorf("Failed to convert %s: %v", app.ID, err)
			failed++
			processed = append(processed, app)
			continue
		}

		publisher.PublishOutcome(ctx, outcome)
		outcome.Cleanup()

		if app.ConversionStatus == catalog.RecordCompleted {
			converted++
		} else {
			failed++
		}
		processed = append(processed, app)
	}

	if err := publisher.Commit(ctx, arch, processed); err != nil {
		return err
	}

	logrus.Infof("Conversion complete for %s. Success: %d, Failed: %d", arch, converted, failed)
	return nil
}

// buildPublisher wires the asset store and the optional catalog signer.
func buildPublisher(cfg *config.Config, store *catalog.Store) (*publish.Publisher, error) {
	var signer *publish.CatalogSigner
	if cfg.Publish.GPGKeyPath != "" {
		var err error
		signer, err = publish.NewCatalogSigner(cfg.Publish.GPGKeyPath, cfg.Publish.GPGPassphrase)
		if err != nil {
			return nil, &catalog.PipelineError{Type: catalog.ErrPublish, Err: err}
		}
		logrus.Info("Catalog signer initialized")
	}

	assets := publish.NewLocalStore(cfg.Paths.AssetDir, cfg.Publish.BaseURL)
	return publish.NewPublisher(assets, store, cfg.EnabledFormats(), signer), nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
