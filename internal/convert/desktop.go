package convert

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DesktopEntry holds the fields the pipeline reads from an AppImage's
// embedded desktop entry.
type DesktopEntry struct {
	Name       string
	Comment    string
	Exec       string
	Icon       string
	Categories []string
	MimeTypes  []string
	IconPath   string
}

// ParseDesktopEntry locates and parses the first desktop entry at the root
// of an extracted AppImage. Returns nil without error when no entry exists;
// metadata enrichment is best-effort.
func ParseDesktopEntry(root string) (*DesktopEntry, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.desktop"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	entry, err := parseDesktopFile(matches[0])
	if err != nil {
		return nil, err
	}
	if entry != nil && entry.Icon != "" {
		entry.IconPath = findIconFile(root, entry.Icon)
	}
	return entry, nil
}

// parseDesktopFile reads the [Desktop Entry] section of a desktop file. The
// format is line-oriented key=value, no INI interpolation.
func parseDesktopFile(path string) (*DesktopEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entry := &DesktopEntry{}
	inSection := false
	sawSection := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			if inSection {
				sawSection = true
			}
			continue
		}
		if !inSection {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Name":
			entry.Name = strings.TrimSpace(value)
		case "Comment":
			entry.Comment = strings.TrimSpace(value)
		case "Exec":
			entry.Exec = strings.TrimSpace(value)
		case "Icon":
			entry.Icon = strings.TrimSpace(value)
		case "Categories":
			entry.Categories = splitList(value)
		case "MimeType":
			entry.MimeTypes = splitList(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawSection {
		return nil, fmt.Errorf("%s has no [Desktop Entry] section", filepath.Base(path))
	}
	return entry, nil
}

// splitList splits a semicolon-delimited desktop entry list, dropping empty
// items left by trailing delimiters.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// findIconFile searches the usual AppImage locations for the entry's icon.
func findIconFile(root, iconName string) string {
	searchDirs := []string{
		root,
		filepath.Join(root, "usr", "share", "icons"),
		filepath.Join(root, "usr", "share", "pixmaps"),
	}
	extensions := []string{".png", ".svg", ".xpm", ".ico"}

	for _, dir := range searchDirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}

		for _, ext := range extensions {
			candidate := filepath.Join(dir, iconName+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		// Recursive search as a last resort within this directory.
		var found string
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || found != "" || info.IsDir() {
				return nil
			}
			base := info.Name()
			for _, ext := range extensions {
				if base == iconName+ext {
					found = path
				}
			}
			return nil
		})
		if found != "" {
			return found
		}
	}
	return ""
}
