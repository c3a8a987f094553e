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

// debArchNames maps catalog architectures to dpkg architecture names.
var debArchNames = map[string]string{
	"x86_64":  "amd64",
	"aarch64": "arm64",
	"armhf":   "armhf",
	"i686":    "i386",
}

// DebArch returns the dpkg spelling of a catalog architecture.
func DebArch(arch string) string {
	if name, ok := debArchNames[arch]; ok {
		return name
	}
	return arch
}

// dpkgDebBuilder builds .deb packages with the native dpkg toolchain. It is
// the preferred builder when the worker runs on the record's architecture.
type dpkgDebBuilder struct{}

// NewDpkgDebBuilder returns the native deb builder.
func NewDpkgDebBuilder() Builder {
	return &dpkgDebBuilder{}
}

func (b *dpkgDebBuilder) Format() catalog.Format { return catalog.FormatDeb }
func (b *dpkgDebBuilder) Tool() string           { return "dpkg-deb" }
func (b *dpkgDebBuilder) Available() bool        { return deps.Available("dpkg-deb") }

// CanBuild restricts the native builder to the host architecture; foreign
// targets go through the cross-capable fallback.
func (b *dpkgDebBuilder) CanBuild(arch string) bool {
	return arch == source.HostArch()
}

func (b *dpkgDebBuilder) Build(ctx context.Context, input BuildInput) (string, error) {
	staging := filepath.Join(input.OutputDir, "deb-staging")
	if err := stagePayload(input, staging); err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	control := fmt.Sprintf(`Package: %s
Version: %s
Architecture: %s
Maintainer: AppBinHub <noreply@appbinhub.invalid>
Section: misc
Priority: optional
Description: %s
`, PackageName(input.App), PackageVersion(input.App), DebArch(input.App.Architecture), packageDescription(input))

	if err := utils.WriteFile(filepath.Join(staging, "DEBIAN", "control"), []byte(control), 0644); err != nil {
		return "", err
	}

	output := filepath.Join(input.OutputDir, fmt.Sprintf("%s_%s_%s.deb",
		PackageName(input.App), PackageVersion(input.App), DebArch(input.App.Architecture)))

	if _, err := runTool(ctx, input.Timeout, input.OutputDir, "dpkg-deb",
		"--build", "--root-owner-group", staging, output); err != nil {
		os.Remove(output)
		return "", err
	}
	return output, nil
}

// stagePayload lays the extracted AppImage under the install prefix and adds
// a launcher symlink so the packaged app lands on PATH.
func stagePayload(input BuildInput, staging string) error {
	prefix := filepath.Join(staging, installPrefix(input.App))

	if err := copyTree(input.Root, prefix); err != nil {
		return fmt.Errorf("stage payload: %w", err)
	}

	apprun := filepath.Join(prefix, "AppRun")
	if _, err := os.Stat(apprun); err != nil {
		// No AppRun means nothing sensible to symlink; ship the payload
		// as-is.
		return nil
	}

	binDir := filepath.Join(staging, "usr", "bin")
	if err := utils.EnsureDir(binDir); err != nil {
		return err
	}
	target := filepath.Join("/", installPrefix(input.App), "AppRun")
	return os.Symlink(target, filepath.Join(binDir, PackageName(input.App)))
}

// copyTree replicates a directory tree preserving modes and symlinks.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dst, rel)

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
				return err
			}
			return os.Symlink(target, dest)
		case info.IsDir():
			return os.MkdirAll(dest, info.Mode().Perm())
		default:
			if err := utils.CopyFile(path, dest); err != nil {
				return err
			}
			return os.Chmod(dest, info.Mode().Perm())
		}
	})
}
