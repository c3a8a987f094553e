package convert

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// BuildInput is everything a builder needs to produce one package.
type BuildInput struct {
	App *catalog.Application
	// Root is the extracted AppImage filesystem.
	Root string
	// OutputDir receives the built package file.
	OutputDir string
	// Entry is the parsed desktop entry, nil when extraction yielded none.
	Entry *DesktopEntry
	// Timeout bounds each external tool invocation.
	Timeout time.Duration
}

// Builder produces one package format through one specific tool.
type Builder interface {
	// Format names the package format this builder produces.
	Format() catalog.Format

	// Tool names the underlying builder for logs and tool reports.
	Tool() string

	// Available reports whether the builder's binary is installed.
	Available() bool

	// CanBuild reports whether this builder can target the architecture.
	CanBuild(arch string) bool

	// Build produces the package and returns its path.
	Build(ctx context.Context, input BuildInput) (string, error)
}

// Chain is the ordered tool fallback for one format: the preferred builder
// first, cross-capable fallbacks after it.
type Chain []Builder

// Build walks the chain and runs the first builder that is installed and can
// target the architecture. A missing tool falls through to the next builder;
// a real build failure does not, so a broken tool is surfaced instead of
// being papered over by a fallback.
func (c Chain) Build(ctx context.Context, input BuildInput) (string, error) {
	arch := input.App.Architecture

	for _, builder := range c {
		if !builder.CanBuild(arch) {
			logrus.Debugf("Builder %s cannot target %s, trying next", builder.Tool(), arch)
			continue
		}
		if !builder.Available() {
			logrus.Debugf("Builder %s not installed, trying next", builder.Tool())
			continue
		}

		logrus.Infof("Building %s for %s (%s) with %s", builder.Format(), input.App.ID, arch, builder.Tool())
		return builder.Build(ctx, input)
	}

	return "", fmt.Errorf("%w: no installed builder can produce %s for %s",
		catalog.ErrToolUnavailable, c.format(), arch)
}

func (c Chain) format() catalog.Format {
	if len(c) == 0 {
		return ""
	}
	return c[0].Format()
}

var invalidNameChars = regexp.MustCompile(`[^a-z0-9.+-]+`)

// PackageName derives the package name builders stamp into metadata, kept
// within the character set all three formats accept.
func PackageName(app *catalog.Application) string {
	name := app.BaseID
	if name == "" {
		name = app.ID
	}
	name = invalidNameChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(name, "-.")
}

// PackageVersion derives the version builders stamp into metadata. Tag
// prefixes are stripped and separators hostile to deb/rpm version fields
// are normalized.
func PackageVersion(app *catalog.Application) string {
	version := strings.TrimSpace(app.Version)
	version = strings.TrimPrefix(version, "v")
	version = strings.ReplaceAll(version, "-", ".")
	version = strings.ReplaceAll(version, "_", ".")
	if version == "" {
		version = "0.0.0"
	}
	return version
}

// packageDescription picks the description stamped into package metadata.
func packageDescription(input BuildInput) string {
	if input.Entry != nil && input.Entry.Comment != "" {
		return input.Entry.Comment
	}
	if input.App.Description != "" {
		return input.App.Description
	}
	return fmt.Sprintf("%s repackaged from the upstream AppImage", input.App.Name)
}

// installPrefix is where converted packages place the application payload.
func installPrefix(app *catalog.Application) string {
	return "opt/" + PackageName(app)
}
