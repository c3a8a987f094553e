package source

import (
	"runtime"
	"strings"
)

// DefaultArch is assumed when an artifact name carries no architecture hint;
// x86_64 remains the overwhelming default for published AppImages.
const DefaultArch = "x86_64"

// archAliases maps the architecture spellings seen in artifact names and
// API responses to canonical catalog values.
var archAliases = map[string]string{
	"x86_64":  "x86_64",
	"x86-64":  "x86_64",
	"amd64":   "x86_64",
	"x64":     "x86_64",
	"aarch64": "aarch64",
	"arm64":   "aarch64",
	"armhf":   "armhf",
	"armv7l":  "armhf",
	"armv7":   "armhf",
	"i686":    "i686",
	"i386":    "i686",
	"x86":     "i686",
}

// NormalizeArch canonicalizes an architecture spelling. Unknown values pass
// through lowercased so new architectures degrade gracefully.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	if canonical, ok := archAliases[arch]; ok {
		return canonical
	}
	if arch == "" {
		return DefaultArch
	}
	return arch
}

// DetectArchFromURL infers the target architecture from a download URL or
// file name.
func DetectArchFromURL(url string) string {
	lower := strings.ToLower(url)
	// Longer aliases first so "x86_64" is not shadowed by "x86".
	for _, alias := range []string{"x86_64", "x86-64", "amd64", "aarch64", "arm64", "armv7l", "armhf", "i686", "i386"} {
		if strings.Contains(lower, alias) {
			return archAliases[alias]
		}
	}
	return DefaultArch
}

// HostArch returns the canonical architecture of the machine running the
// pipeline.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "arm":
		return "armhf"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}

// IsAppImageURL checks whether a URL plausibly points at an AppImage.
func IsAppImageURL(url string) bool {
	return strings.Contains(strings.ToLower(url), ".appimage")
}
