package convert

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// tarGzBuilder packages the extracted AppImage as a plain tarball. It runs
// entirely in-process, so it is always available and architecture-agnostic;
// it anchors the fallback chain for hosts with no packaging tools at all.
type tarGzBuilder struct{}

// NewTarGzBuilder returns the tar.gz builder.
func NewTarGzBuilder() Builder {
	return &tarGzBuilder{}
}

func (b *tarGzBuilder) Format() catalog.Format { return catalog.FormatTarGz }
func (b *tarGzBuilder) Tool() string           { return "tar.gz (builtin)" }
func (b *tarGzBuilder) Available() bool        { return true }
func (b *tarGzBuilder) CanBuild(string) bool   { return true }

func (b *tarGzBuilder) Build(ctx context.Context, input BuildInput) (string, error) {
	name := PackageName(input.App)
	output := filepath.Join(input.OutputDir,
		fmt.Sprintf("%s-%s.%s.tar.gz", name, PackageVersion(input.App), input.App.Architecture))

	f, err := os.Create(output)
	if err != nil {
		return "", err
	}

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	err = filepath.Walk(input.Root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(input.Root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(name, rel))

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})

	if err == nil {
		err = tw.Close()
	} else {
		tw.Close()
	}
	if closeErr := gw.Close(); err == nil {
		err = closeErr
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(output)
		return "", fmt.Errorf("build tarball: %w", err)
	}
	return output, nil
}
