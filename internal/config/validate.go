package config

import (
	"fmt"
	"strings"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

var knownFormats = map[string]bool{
	"deb":    true,
	"rpm":    true,
	"tar.gz": true,
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return invalid("paths.data_dir is required")
	}
	if len(c.Conversion.Formats) == 0 {
		return invalid("conversion.formats must list at least one format")
	}
	for _, f := range c.Conversion.Formats {
		if !knownFormats[f] {
			return invalid(fmt.Sprintf("unknown format %q (supported: deb, rpm, tar.gz)", f))
		}
	}
	if len(c.Conversion.Architectures) == 0 {
		return invalid("conversion.architectures must list at least one architecture")
	}
	if c.Conversion.MinAppImageBytes > c.Conversion.MaxAppImageBytes {
		return invalid("conversion.min_appimage_bytes exceeds max_appimage_bytes")
	}
	if c.GitHub.RateLimitThreshold < 0 {
		return invalid("github.rate_limit_threshold cannot be negative")
	}

	seen := make(map[string]bool, len(c.Direct))
	for _, ep := range c.Direct {
		if strings.TrimSpace(ep.ID) == "" {
			return invalid("direct_endpoint entries require an id")
		}
		if seen[ep.ID] {
			return invalid(fmt.Sprintf("duplicate direct_endpoint id %q", ep.ID))
		}
		seen[ep.ID] = true
		if strings.TrimSpace(ep.APIURL) == "" {
			return invalid(fmt.Sprintf("direct_endpoint %q requires api_url", ep.ID))
		}
	}

	return nil
}

func invalid(msg string) error {
	return &catalog.PipelineError{Type: catalog.ErrInvalidConfig, Err: fmt.Errorf("%s", msg)}
}
