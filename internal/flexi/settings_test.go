package flexi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flexipdf/internal/flexi"
	"flexipdf/internal/testutil"
)

func TestSettings_Language(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "de", want: "de"},
		{name: "canonicalized", input: "EN-gb", want: "en-GB"},
		{name: "underscore separator", input: "pt_BR", want: "pt-BR"},
		{name: "malformed", input: "not a language", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flexi.NewSettings(testutil.NewTestStore(t), nil)

			got, err := s.SetLanguage(ctx, tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, flexi.ErrInvalidSetting)
				lang, err := s.Language(ctx)
				require.NoError(t, err)
				assert.Equal(t, flexi.DefaultLanguage, lang, "rejected value must not be stored")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			stored, err := s.Language(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored)
		})
	}
}

func TestSettings_Theme(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewTestStore(t)
	s := flexi.NewSettings(kv, nil)

	theme, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, flexi.ThemeSystem, theme)

	require.NoError(t, s.SetTheme(ctx, " Dark "))
	theme, err = s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, flexi.ThemeDark, theme)

	assert.ErrorIs(t, s.SetTheme(ctx, "sepia"), flexi.ErrInvalidSetting)

	raw, _ := testutil.MustGet(t, kv, flexi.KeyTheme)
	assert.Equal(t, "dark", raw)
}

func TestSettings_CorruptedValuesFallBack(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		raw  string
		load func(s *flexi.Settings) (string, error)
		want string
	}{
		{
			name: "malformed language tag",
			key:  flexi.KeyLanguage,
			raw:  "not a language",
			load: func(s *flexi.Settings) (string, error) { return s.Language(ctx) },
			want: flexi.DefaultLanguage,
		},
		{
			name: "unknown theme",
			key:  flexi.KeyTheme,
			raw:  "sepia",
			load: func(s *flexi.Settings) (string, error) { return s.Theme(ctx) },
			want: flexi.ThemeSystem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := testutil.NewTestStore(t)
			testutil.MustPut(t, kv, tt.key, tt.raw)

			got, err := tt.load(flexi.NewSettings(kv, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			_, ok := testutil.MustGet(t, kv, tt.key)
			assert.False(t, ok, "corrupted value should be deleted")
		})
	}

	t.Run("hand edited tag is canonicalized", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		testutil.MustPut(t, kv, flexi.KeyLanguage, "EN-gb")

		got, err := flexi.NewSettings(kv, nil).Language(ctx)
		require.NoError(t, err)
		assert.Equal(t, "en-GB", got)
	})
}
