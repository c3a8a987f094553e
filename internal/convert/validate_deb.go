package convert

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
)

// validateDeb extracts the control member of a built .deb in-process and
// cross-checks it against the record the package was built for.
func validateDeb(path string, app *catalog.Application) error {
	control, err := extractDebControl(path)
	if err != nil {
		return fmt.Errorf("read deb control: %w", err)
	}

	fields := parseControlFields(control)

	if got, want := fields["Package"], PackageName(app); got != want {
		return fmt.Errorf("deb package name %q does not match record %q", got, want)
	}
	if got, want := fields["Version"], PackageVersion(app); got != want {
		return fmt.Errorf("deb version %q does not match record %q", got, want)
	}
	if got, want := fields["Architecture"], DebArch(app.Architecture); got != want && got != "all" {
		return fmt.Errorf("deb architecture %q does not match record %q", got, want)
	}
	return nil
}

// extractDebControl pulls the control file out of a .deb. Debian packages
// are ar archives holding a compressed control.tar member.
func extractDebControl(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Skip the global ar header ("!<arch>\n").
	header := make([]byte, 8)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, err
	}

	for {
		// Each ar member starts with a 60-byte header.
		arHeader := make([]byte, 60)
		if _, err := io.ReadFull(f, arHeader); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read ar member header: %w", err)
		}

		// Name is space-padded in the first 16 bytes, possibly with a
		// trailing slash; size is decimal in bytes 48-58.
		name := strings.TrimRight(strings.TrimSpace(string(arHeader[0:16])), "/")
		var size int64
		fmt.Sscanf(strings.TrimSpace(string(arHeader[48:58])), "%d", &size)

		if strings.HasPrefix(name, "control.tar") {
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, err
			}
			return controlFromTar(data, name)
		}

		if _, err := f.Seek(size, io.SeekCurrent); err != nil {
			return nil, err
		}
		// Members align to 2-byte boundaries.
		if size%2 != 0 {
			f.Seek(1, io.SeekCurrent)
		}
	}

	return nil, fmt.Errorf("control.tar not found in package")
}

// controlFromTar decompresses control.tar* and returns the control file.
func controlFromTar(data []byte, member string) ([]byte, error) {
	var tarReader *tar.Reader

	switch {
	case strings.HasSuffix(member, ".gz"):
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		tarReader = tar.NewReader(gr)
	case strings.HasSuffix(member, ".xz"):
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		tarReader = tar.NewReader(xr)
	case strings.HasSuffix(member, ".zst"):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		tarReader = tar.NewReader(zr)
	default:
		tarReader = tar.NewReader(bytes.NewReader(data))
	}

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == "./control" || header.Name == "control" {
			return io.ReadAll(tarReader)
		}
	}
	return nil, fmt.Errorf("control file not found in %s", member)
}

// parseControlFields parses the RFC822-style control format, folding
// continuation lines into their field.
func parseControlFields(data []byte) map[string]string {
	fields := make(map[string]string)

	var key string
	var value strings.Builder
	flush := func() {
		if key != "" {
			fields[key] = value.String()
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			value.WriteString("\n")
			value.WriteString(strings.TrimSpace(line))
			continue
		}

		flush()
		key = ""
		if k, v, ok := strings.Cut(line, ":"); ok {
			key = strings.TrimSpace(k)
			value.Reset()
			value.WriteString(strings.TrimSpace(v))
		}
	}
	flush()

	return fields
}
