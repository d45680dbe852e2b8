package emulator

import (
	"path/filepath"
	"regexp"
	"strings"
)

var cleaners = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\([^)]*\)`), ""},
	{regexp.MustCompile(`\[[^\]]*\]`), ""},
	{regexp.MustCompile(`_`), " "},
	{regexp.MustCompile(`^\s*\d+\s*-\s*`), ""},
	{regexp.MustCompile(`\s+`), " "},
}

// CleanFileName derives a display title from a ROM file name.
func CleanFileName(name string) string {
	return CleanName(strings.TrimSuffix(name, filepath.Ext(name)))
}

// CleanName strips release tags, dump flags and numbering from name. A name
// that cleans down to nothing is returned trimmed but otherwise unchanged.
func CleanName(name string) string {
	cleaned := name
	for _, c := range cleaners {
		cleaned = c.re.ReplaceAllString(cleaned, c.repl)
	}
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return strings.TrimSpace(name)
	}
	return cleaned
}
