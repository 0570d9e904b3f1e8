package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns apply to every picked directory before config and
// .flexiignore patterns, which may re-include with '!'. "._*" catches the
// AppleDouble companions that carry a .pdf suffix but hold no PDF.
var DefaultIgnorePatterns = []string{
	".git/",
	".svn/",
	".Trash*/",
	"__MACOSX/",
	"node_modules/",
	"._*",
	".~lock.*",
}

// ignoreRule is one parsed line of an ignore list.
type ignoreRule struct {
	glob     string
	anchored bool // matched against the whole relative path, not the base name
	dirOnly  bool // trailing '/': directories only
	negate   bool // leading '!': re-include what an earlier rule ignored
}

func parseRule(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.Contains(line, "/") {
		r.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return ignoreRule{}, false
	}
	// A malformed glob would never match; drop it up front.
	if _, err := filepath.Match(line, ""); err != nil {
		return ignoreRule{}, false
	}
	r.glob = line
	return r, true
}

func (r ignoreRule) matches(rel, base string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	target := base
	if r.anchored {
		target = rel
	}
	ok, _ := filepath.Match(r.glob, target)
	return ok
}

// IgnoreMatcher decides which paths below a picked directory are skipped.
// A pattern without '/' matches base names at any depth; one with '/' is
// anchored to the picked directory. The last matching pattern wins.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher builds a matcher from pattern lists, applied in order.
func NewIgnoreMatcher(lists ...[]string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, list := range lists {
		for _, line := range list {
			if r, ok := parseRule(line); ok {
				m.rules = append(m.rules, r)
			}
		}
	}
	return m
}

// Ignored reports whether rel, relative to the picked directory, is skipped.
func (m *IgnoreMatcher) Ignored(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)

	ignored := false
	for _, r := range m.rules {
		if r.negate == ignored && r.matches(rel, base, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile returns the lines of a .flexiignore file, without a byte
// order mark or CRLF endings. A missing file yields no lines and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
