package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// GitHubTokenEnvVar names the environment variable holding the API token.
const GitHubTokenEnvVar = "GITHUB_TOKEN"

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	WorkDir  string `toml:"work_dir"`
	AssetDir string `toml:"asset_dir"`
}

// GitHub contains configuration for the GitHub releases source.
type GitHub struct {
	Repositories       []string `toml:"repositories"`
	BaseURL            string   `toml:"base_url"`
	RateLimitThreshold int      `toml:"rate_limit_threshold"`
	RequestTimeout     int      `toml:"request_timeout"`
}

// DirectEndpoint describes one direct "latest artifact" API source. The API
// URL may contain an {arch} placeholder expanded per architecture.
type DirectEndpoint struct {
	ID            string   `toml:"id"`
	Name          string   `toml:"name"`
	Description   string   `toml:"description"`
	Category      string   `toml:"category"`
	Website       string   `toml:"website"`
	APIURL        string   `toml:"api_url"`
	Architectures []string `toml:"architectures"`
}

// Conversion contains the conversion engine settings.
type Conversion struct {
	Formats          []string `toml:"formats"`
	Architectures    []string `toml:"architectures"`
	DownloadTimeout  int      `toml:"download_timeout"`
	ExtractTimeout   int      `toml:"extract_timeout"`
	BuildTimeout     int      `toml:"build_timeout"`
	MinAppImageBytes int64    `toml:"min_appimage_bytes"`
	MaxAppImageBytes int64    `toml:"max_appimage_bytes"`
	MaxPackageBytes  int64    `toml:"max_package_bytes"`
}

// Publish contains asset store and signing settings.
type Publish struct {
	BaseURL       string `toml:"base_url"`
	GPGKeyPath    string `toml:"gpg_key_path"`
	GPGPassphrase string `toml:"gpg_passphrase"`
}

// Config is the full configuration for a pipeline run.
type Config struct {
	Paths      Paths            `toml:"paths"`
	GitHub     GitHub           `toml:"github"`
	Direct     []DirectEndpoint `toml:"direct_endpoint"`
	Conversion Conversion       `toml:"conversion"`
	Publish    Publish          `toml:"publish"`
}

// Load reads configuration from path, applying defaults for anything the
// file leaves unset. A missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, &catalog.PipelineError{Type: catalog.ErrInvalidConfig, Err: err}
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &catalog.PipelineError{
			Type: catalog.ErrInvalidConfig,
			Err:  fmt.Errorf("parse %s: %w", path, err),
		}
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

// GitHubToken returns the API token from the environment, empty when unset.
func (c *Config) GitHubToken() string {
	return os.Getenv(GitHubTokenEnvVar)
}

// CatalogPath returns the location of the applications catalog file.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "applications.json")
}

// EnabledFormats returns the configured formats as catalog format values.
func (c *Config) EnabledFormats() []catalog.Format {
	formats := make([]catalog.Format, 0, len(c.Conversion.Formats))
	for _, f := range c.Conversion.Formats {
		formats = append(formats, catalog.Format(f))
	}
	return formats
}

// normalize fills derived values after parsing.
func (c *Config) normalize() {
	if c.Paths.AssetDir == "" {
		c.Paths.AssetDir = filepath.Join(c.Paths.DataDir, "converted_packages")
	}
	for i := range c.Direct {
		if len(c.Direct[i].Architectures) == 0 {
			c.Direct[i].Architectures = c.Conversion.Architectures
		}
	}
}
