package convert

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevelopmentCats/AppBinHub/internal/deps"
	"github.com/DevelopmentCats/AppBinHub/internal/source"
)

// squashfsRootDir is the directory name AppImages use for their payload.
const squashfsRootDir = "squashfs-root"

// extractFunc is the extraction entry point the engine calls; tests swap it
// to avoid depending on installed tools.
var extractFunc = Extract

// Extract unpacks an AppImage's filesystem image into workDir and returns
// the extracted root. unsquashfs is preferred because it works regardless of
// the AppImage's target architecture; running the AppImage's own
// --appimage-extract only works when the binary can execute on this host.
func Extract(ctx context.Context, appimagePath, targetArch, workDir string, timeout time.Duration) (string, error) {
	root := filepath.Join(workDir, squashfsRootDir)

	if deps.Available("unsquashfs") {
		offset, err := squashfsOffset(appimagePath)
		if err != nil {
			return "", fmt.Errorf("locate squashfs image: %w", err)
		}
		if _, err := runTool(ctx, timeout, workDir, "unsquashfs",
			"-o", fmt.Sprintf("%d", offset), "-d", root, appimagePath); err != nil {
			os.RemoveAll(root)
			return "", fmt.Errorf("unsquashfs: %w", err)
		}
		return root, nil
	}

	// Self-extraction runs the AppImage binary, so it is only an option
	// when the host matches the target architecture.
	if source.HostArch() != targetArch {
		return "", fmt.Errorf("%w: unsquashfs missing and cannot self-extract %s AppImage on %s host",
			errExtractorUnavailable, targetArch, source.HostArch())
	}

	logrus.Debugf("unsquashfs unavailable, falling back to self-extraction for %s", appimagePath)
	if _, err := runTool(ctx, timeout, workDir, appimagePath, "--appimage-extract"); err != nil {
		os.RemoveAll(root)
		return "", fmt.Errorf("appimage self-extract: %w", err)
	}

	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("extraction produced no %s directory", squashfsRootDir)
	}
	return root, nil
}

var errExtractorUnavailable = fmt.Errorf("no squashfs extractor available")

// squashfsOffset computes where the embedded squashfs image starts inside a
// type-2 AppImage: immediately after the ELF section header table.
func squashfsOffset(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ident := make([]byte, 5)
	if _, err := f.ReadAt(ident, 0); err != nil {
		return 0, err
	}
	if ident[0] != 0x7f || ident[1] != 'E' || ident[2] != 'L' || ident[3] != 'F' {
		return 0, fmt.Errorf("not an ELF file")
	}

	switch ident[4] {
	case 1: // ELFCLASS32
		header := make([]byte, 52)
		if _, err := f.ReadAt(header, 0); err != nil {
			return 0, err
		}
		shoff := int64(binary.LittleEndian.Uint32(header[32:36]))
		shentsize := int64(binary.LittleEndian.Uint16(header[46:48]))
		shnum := int64(binary.LittleEndian.Uint16(header[48:50]))
		return shoff + shentsize*shnum, nil
	case 2: // ELFCLASS64
		header := make([]byte, 64)
		if _, err := f.ReadAt(header, 0); err != nil {
			return 0, err
		}
		shoff := int64(binary.LittleEndian.Uint64(header[40:48]))
		shentsize := int64(binary.LittleEndian.Uint16(header[58:60]))
		shnum := int64(binary.LittleEndian.Uint16(header[60:62]))
		return shoff + shentsize*shnum, nil
	default:
		return 0, fmt.Errorf("unrecognized ELF class %d", ident[4])
	}
}
