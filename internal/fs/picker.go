package fs

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"flexipdf/internal/flexi"
)

// IgnoreFileName is read from every picked directory root.
const IgnoreFileName = ".flexiignore"

// OSPicker turns paths on the local filesystem into library picks and
// grants read access to file:// locators.
type OSPicker struct {
	ignore []string
}

// NewOSPicker creates a picker that skips files matching any of the
// ignore patterns, in addition to those listed in each directory's
// .flexiignore.
func NewOSPicker(ignore []string) *OSPicker {
	return &OSPicker{ignore: ignore}
}

// resolve validates a raw path and returns its absolute form and file info.
func resolve(rawPath string) (string, fs.FileInfo, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return "", nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return "", nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return "", nil, fmt.Errorf("sockets not supported: %s", absPath)
	}
	return absPath, info, nil
}

// IsPDF reports whether name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Pick resolves each raw path. A file must be a PDF. A directory yields the
// PDFs directly inside it, or everywhere below it when recursive is set,
// minus ignored ones.
func (p *OSPicker) Pick(rawPaths []string, recursive bool) ([]flexi.Pick, error) {
	var picks []flexi.Pick
	for _, raw := range rawPaths {
		absPath, info, err := resolve(raw)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !IsPDF(absPath) {
				return nil, fmt.Errorf("not a PDF file: %s", absPath)
			}
			picks = append(picks, newPick(absPath, info))
			continue
		}

		found, err := p.findPDFs(absPath, recursive)
		if err != nil {
			return nil, err
		}
		picks = append(picks, found...)
	}
	return picks, nil
}

// findPDFs discovers PDFs under root.
func (p *OSPicker) findPDFs(root string, recursive bool) ([]flexi.Pick, error) {
	local, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := NewIgnoreMatcher(DefaultIgnorePatterns, p.ignore, local)

	var picks []flexi.Pick
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !recursive || matcher.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsPDF(d.Name()) || matcher.Ignored(rel, false) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		picks = append(picks, newPick(path, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return picks, nil
}

func newPick(absPath string, info fs.FileInfo) flexi.Pick {
	return flexi.Pick{
		Locator:      Locator(absPath),
		Name:         filepath.Base(absPath),
		LastModified: info.ModTime().UnixMilli(),
	}
}

// Locator returns the file:// URI for an absolute path.
func Locator(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}

// LocatorPath returns the local path behind a file:// locator.
func LocatorPath(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parsing locator %q: %w", locator, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported locator scheme %q", u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("remote file locator %q not supported", locator)
	}
	return filepath.FromSlash(u.Path), nil
}

// Grant checks that the locator names a regular file this process can read.
func (p *OSPicker) Grant(_ context.Context, locator string) error {
	path, err := LocatorPath(locator)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return f.Close()
}

// Compile-time check that OSPicker implements flexi.PermissionGranter interface
var _ flexi.PermissionGranter = (*OSPicker)(nil)
