package convert

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// Magic bytes for the produced package formats.
var (
	debMagic  = []byte("!<arch>\ndebian")
	rpmMagic  = []byte{0xED, 0xAB, 0xEE, 0xDB}
	gzipMagic = []byte{0x1F, 0x8B}
)

// ValidateArtifact checks a freshly built package before it can be marked
// available: non-empty, carrying the right magic bytes, and with embedded
// metadata matching the record it was built for.
func ValidateArtifact(format catalog.Format, path string, app *catalog.Application) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("artifact %s is empty", path)
	}

	header, err := readHeader(path, 512)
	if err != nil {
		return err
	}

	switch format {
	case catalog.FormatDeb:
		if !bytes.HasPrefix(header, debMagic) {
			return fmt.Errorf("%s is not a Debian package", path)
		}
		return validateDeb(path, app)
	case catalog.FormatRPM:
		if !bytes.HasPrefix(header, rpmMagic) {
			return fmt.Errorf("%s is not an RPM package", path)
		}
		return validateRPM(path, app)
	case catalog.FormatTarGz:
		if !bytes.HasPrefix(header, gzipMagic) {
			return fmt.Errorf("%s is not gzip compressed", path)
		}
		return validateTarGz(path)
	default:
		return fmt.Errorf("no validator for format %q", format)
	}
}

func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, n)
	read, err := f.Read(header)
	if err != nil && read == 0 {
		return nil, err
	}
	return header[:read], nil
}

// validateTarGz decompresses the archive and requires at least one regular
// file inside.
func validateTarGz(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("corrupt gzip stream: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("tarball contains no regular files")
		}
		if err != nil {
			return fmt.Errorf("corrupt tarball: %w", err)
		}
		if header.Typeflag == tar.TypeReg {
			return nil
		}
	}
}
