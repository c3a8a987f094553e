package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/deps"
	"github.com/DevelopmentCats/AppBinHub/internal/source"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// rpmbuildBuilder builds .rpm packages with the native rpm toolchain.
type rpmbuildBuilder struct{}

// NewRpmbuildBuilder returns the native rpm builder.
func NewRpmbuildBuilder() Builder {
	return &rpmbuildBuilder{}
}

func (b *rpmbuildBuilder) Format() catalog.Format { return catalog.FormatRPM }
func (b *rpmbuildBuilder) Tool() string           { return "rpmbuild" }
func (b *rpmbuildBuilder) Available() bool        { return deps.Available("rpmbuild") }

func (b *rpmbuildBuilder) CanBuild(arch string) bool {
	return arch == source.HostArch()
}

func (b *rpmbuildBuilder) Build(ctx context.Context, input BuildInput) (string, error) {
	topDir := filepath.Join(input.OutputDir, "rpm-topdir")
	buildRoot := filepath.Join(topDir, "BUILDROOT")
	for _, sub := range []string{"SPECS", "RPMS", "BUILD", "BUILDROOT"} {
		if err := utils.EnsureDir(filepath.Join(topDir, sub)); err != nil {
			return "", err
		}
	}
	defer os.RemoveAll(topDir)

	if err := stagePayload(input, buildRoot); err != nil {
		return "", err
	}

	name := PackageName(input.App)
	version := PackageVersion(input.App)
	arch := input.App.Architecture

	spec := fmt.Sprintf(`Name: %s
Version: %s
Release: 1
Summary: %s
License: Unknown
BuildArch: %s
AutoReqProv: no

%%description
%s

%%files
/%s
%s

%%install
true
`, name, version, packageDescription(input), arch, packageDescription(input), installPrefix(input.App), rpmExtraFiles(buildRoot, name))

	specPath := filepath.Join(topDir, "SPECS", name+".spec")
	if err := utils.WriteFile(specPath, []byte(spec), 0644); err != nil {
		return "", err
	}

	if _, err := runTool(ctx, input.Timeout, input.OutputDir, "rpmbuild",
		"-bb",
		"--target", arch,
		"--define", "_topdir "+topDir,
		"--define", "buildroot "+buildRoot,
		"--noclean",
		specPath); err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(topDir, "RPMS", "*", "*.rpm"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("rpmbuild produced no package")
	}

	output := filepath.Join(input.OutputDir, filepath.Base(matches[0]))
	if err := utils.CopyFile(matches[0], output); err != nil {
		return "", err
	}
	return output, nil
}

// rpmExtraFiles adds the launcher symlink to the %files list when staging
// created one.
func rpmExtraFiles(buildRoot, name string) string {
	launcher := filepath.Join(buildRoot, "usr", "bin", name)
	if _, err := os.Lstat(launcher); err != nil {
		return ""
	}
	return "/usr/bin/" + name
}
