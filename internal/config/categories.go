package config

import "strings"

// categoryMapping translates FreeDesktop.org desktop entry categories into
// the site's category slugs.
var categoryMapping = map[string]string{
	"AudioVideo":  "audio",
	"Audio":       "audio",
	"Video":       "video",
	"Development": "programming",
	"Education":   "education",
	"Game":        "games",
	"Graphics":    "graphics",
	"Network":     "internet",
	"Office":      "office",
	"Science":     "education",
	"Settings":    "utilities",
	"System":      "utilities",
	"Utility":     "utilities",

	"Photography":    "graphics",
	"Publishing":     "office",
	"WebBrowser":     "internet",
	"TextEditor":     "office",
	"IDE":            "programming",
	"Debugger":       "programming",
	"WebDevelopment": "programming",
}

// MapDesktopCategory maps a desktop entry category to a site category,
// falling back to partial matches for compound entries like
// "Development;IDE" fragments, then to "other".
func MapDesktopCategory(desktopCategory string) string {
	desktopCategory = strings.TrimSpace(desktopCategory)
	if desktopCategory == "" {
		return "other"
	}
	if mapped, ok := categoryMapping[desktopCategory]; ok {
		return mapped
	}
	for key, value := range categoryMapping {
		if strings.Contains(desktopCategory, key) {
			return value
		}
	}
	return "other"
}

// MapDesktopCategories maps and deduplicates a desktop entry category list.
func MapDesktopCategories(desktopCategories []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, cat := range desktopCategories {
		mapped := MapDesktopCategory(cat)
		if !seen[mapped] {
			seen[mapped] = true
			out = append(out, mapped)
		}
	}
	return out
}
