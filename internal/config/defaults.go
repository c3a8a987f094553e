package config

// Default returns the built-in configuration. Values mirror the limits the
// published catalog and its hosting impose.
func Default() *Config {
	return &Config{
		Paths: Paths{
			DataDir: "website/data",
			WorkDir: "",
		},
		GitHub: GitHub{
			BaseURL:            "https://api.github.com",
			RateLimitThreshold: 100,
			RequestTimeout:     30,
		},
		Conversion: Conversion{
			Formats:          []string{"deb", "rpm", "tar.gz"},
			Architectures:    []string{"x86_64", "aarch64"},
			DownloadTimeout:  300,
			ExtractTimeout:   60,
			BuildTimeout:     300,
			MinAppImageBytes: 1024 * 1024,
			MaxAppImageBytes: 500 * 1024 * 1024,
			MaxPackageBytes:  100 * 1024 * 1024,
		},
		Publish: Publish{
			BaseURL: "./converted_packages",
		},
	}
}
