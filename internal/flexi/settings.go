package flexi

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Theme values accepted by SetTheme.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// DefaultLanguage is reported until a language has been chosen.
const DefaultLanguage = "en"

var themes = []string{ThemeLight, ThemeDark, ThemeSystem}

// Settings holds the user's display preferences. Each preference is its own
// scalar key in the shared store.
type Settings struct {
	language *ScalarStore[string]
	theme    *ScalarStore[string]
}

// languageCodec stores a canonical BCP 47 tag. A stored tag that no longer
// parses fails Decode, so the scalar drops it like any corrupted value.
type languageCodec struct{}

func (languageCodec) Encode(tag string) (string, error) { return canonicalLanguage(tag) }
func (languageCodec) Decode(raw string) (string, error) { return canonicalLanguage(raw) }

func canonicalLanguage(tag string) (string, error) {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", fmt.Errorf("language %q: %w: %v", tag, ErrInvalidSetting, err)
	}
	return parsed.String(), nil
}

// themeCodec accepts only the known theme names.
type themeCodec struct{}

func (themeCodec) Encode(theme string) (string, error) { return normalizeTheme(theme) }
func (themeCodec) Decode(raw string) (string, error)   { return normalizeTheme(raw) }

func normalizeTheme(theme string) (string, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !slices.Contains(themes, theme) {
		return "", fmt.Errorf("theme %q: %w: want one of %s", theme, ErrInvalidSetting, strings.Join(themes, ", "))
	}
	return theme, nil
}

// NewSettings creates Settings over kv.
func NewSettings(kv KVStore, logger Logger) *Settings {
	return &Settings{
		language: NewScalarStore[string](kv, KeyLanguage, DefaultLanguage, languageCodec{}, logger),
		theme:    NewScalarStore[string](kv, KeyTheme, ThemeSystem, themeCodec{}, logger),
	}
}

// Language returns the chosen language as a BCP 47 tag.
func (s *Settings) Language(ctx context.Context) (string, error) {
	return s.language.Load(ctx)
}

// SetLanguage stores tag in canonical form. Malformed tags are rejected.
func (s *Settings) SetLanguage(ctx context.Context, tag string) (string, error) {
	canonical, err := canonicalLanguage(tag)
	if err != nil {
		return "", err
	}
	if err := s.language.Save(ctx, canonical); err != nil {
		return "", err
	}
	return canonical, nil
}

// Theme returns the chosen theme.
func (s *Settings) Theme(ctx context.Context) (string, error) {
	return s.theme.Load(ctx)
}

// SetTheme stores one of ThemeLight, ThemeDark or ThemeSystem.
func (s *Settings) SetTheme(ctx context.Context, theme string) error {
	normalized, err := normalizeTheme(theme)
	if err != nil {
		return err
	}
	return s.theme.Save(ctx, normalized)
}
