package resolver

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// candidates expands raw into every plausible spelling of the same path, in
// order of preference and without duplicates.
func (r *Resolver) candidates(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	addWithAbs := func(p string) {
		add(p)
		add(r.absolute(p))
	}

	add(raw)

	trimmed := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(trimmed, "file://"); ok {
		trimmed = rest
		// file:///C:/x keeps a leading slash before the drive letter
		if len(trimmed) > 2 && trimmed[0] == '/' && trimmed[2] == ':' {
			trimmed = trimmed[1:]
		}
	}
	addWithAbs(trimmed)

	once, err := url.PathUnescape(trimmed)
	if err == nil {
		addWithAbs(once)
		if twice, err := url.PathUnescape(once); err == nil {
			addWithAbs(twice)
		}
	}

	if strings.Contains(trimmed, "%") {
		addWithAbs(legacyUnescape(trimmed))
	}

	return out
}

// absolute cleans p and anchors relative paths at the base directory.
func (r *Resolver) absolute(p string) string {
	p = filepath.Clean(filepath.FromSlash(p))
	if filepath.IsAbs(p) || isDrivePath(p) {
		return p
	}
	return filepath.Join(r.baseDir, p)
}

func isDrivePath(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

// legacyUnescape decodes %uXXXX code points and %XX bytes the way old
// browser escape() output was produced. Invalid sequences are kept verbatim.
func legacyUnescape(s string) string {
	var b strings.Builder
	var pending []byte

	flush := func() {
		for len(pending) > 0 {
			r, size := utf8.DecodeRune(pending)
			if r == utf8.RuneError && size <= 1 {
				// not UTF-8: treat the byte as Latin-1
				b.WriteRune(rune(pending[0]))
				pending = pending[1:]
				continue
			}
			b.WriteRune(r)
			pending = pending[size:]
		}
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			flush()
			b.WriteByte(s[i])
			continue
		}

		if i+5 < len(s) && (s[i+1] == 'u' || s[i+1] == 'U') {
			if v, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
				flush()
				b.WriteRune(rune(v))
				i += 5
				continue
			}
		}
		if i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				pending = append(pending, byte(v))
				i += 2
				continue
			}
		}

		flush()
		b.WriteByte('%')
	}
	flush()

	return b.String()
}
