package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/deps"
)

// fpmBuilder is the cross-architecture fallback. fpm assembles deb and rpm
// packages from a directory tree without running target-architecture code,
// so it can build for any architecture the worker does not run on.
type fpmBuilder struct {
	format catalog.Format
}

// NewFpmBuilder returns an fpm-backed builder for the given format.
func NewFpmBuilder(format catalog.Format) Builder {
	return &fpmBuilder{format: format}
}

func (b *fpmBuilder) Format() catalog.Format { return b.format }
func (b *fpmBuilder) Tool() string           { return "fpm" }
func (b *fpmBuilder) Available() bool        { return deps.Available("fpm") }
func (b *fpmBuilder) CanBuild(string) bool   { return true }

func (b *fpmBuilder) Build(ctx context.Context, input BuildInput) (string, error) {
	staging := filepath.Join(input.OutputDir, "fpm-staging")
	if err := stagePayload(input, staging); err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	name := PackageName(input.App)
	version := PackageVersion(input.App)

	arch := input.App.Architecture
	outputName := fmt.Sprintf("%s-%s.%s.%s", name, version, arch, b.format.Extension())
	if b.format == catalog.FormatDeb {
		arch = DebArch(arch)
		outputName = fmt.Sprintf("%s_%s_%s.deb", name, version, arch)
	}
	output := filepath.Join(input.OutputDir, outputName)

	if _, err := runTool(ctx, input.Timeout, input.OutputDir, "fpm",
		"-s", "dir",
		"-t", string(b.format),
		"-n", name,
		"-v", version,
		"-a", arch,
		"--description", packageDescription(input),
		"-p", output,
		"-C", staging,
		"."); err != nil {
		os.Remove(output)
		return "", err
	}
	return output, nil
}
