package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/config"
	"github.com/DevelopmentCats/AppBinHub/internal/diff"
	"github.com/DevelopmentCats/AppBinHub/internal/source"
)

// NewMonitorCmd creates the monitor command
func NewMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Discover upstream releases and queue new versions for conversion",
		Long: `Queries every configured source for its latest AppImage release,
compares the candidates against the catalog, and marks new or updated
versions as pending. Already-converted versions are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runMonitor(cmd.Context(), cfg)
		},
	}
}

func runMonitor(ctx context.Context, cfg *config.Config) error {
	sources := buildSources(cfg)
	if len(sources) == 0 {
		logrus.Warn("No sources configured, nothing to monitor")
		return nil
	}

	logrus.Info("Starting AppImage discovery...")
	candidates := source.Discover(ctx, sources)
	if len(candidates) == 0 {
		logrus.Info("No candidates discovered")
		return nil
	}

	store := catalog.NewStore(cfg.CatalogPath())
	var result diff.Result
	err := store.Update(ctx, func(c *catalog.Catalog) error {
		result = diff.Reconcile(c, candidates, cfg.EnabledFormats())
		return nil
	})
	if err != nil {
		return err
	}

	logrus.Infof("Monitoring complete: %d added, %d replaced, %d retried, %d unchanged",
		result.Added, result.Replaced, result.Retried, result.Unchanged)
	return nil
}

// buildSources assembles the configured source adapters.
func buildSources(cfg *config.Config) []source.Source {
	var sources []source.Source

	if len(cfg.GitHub.Repositories) > 0 {
		sources = append(sources, source.NewGitHubSource(
			cfg.GitHub.Repositories,
			cfg.GitHubToken(),
			cfg.GitHub.RateLimitThreshold,
			time.Duration(cfg.GitHub.RequestTimeout)*time.Second,
			source.WithGitHubBaseURL(cfg.GitHub.BaseURL),
		))
	}
	if len(cfg.Direct) > 0 {
		sources = append(sources, source.NewDirectSource(
			cfg.Direct,
			time.Duration(cfg.GitHub.RequestTimeout)*time.Second,
		))
	}
	return sources
}
