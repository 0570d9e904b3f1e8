package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flexipdf/internal/flexi"
)

func docs() []flexi.Document {
	taxes := "taxes"
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return []flexi.Document{
		{ID: "1", Name: "invoice-2023.pdf", Locator: "file:///a/invoice-2023.pdf", IsFavorite: true, LastModified: now.Add(-48 * time.Hour).UnixMilli()},
		{ID: "2", Name: "manual.pdf", Locator: "file:///a/manual.pdf", LastModified: now.Add(-30 * 24 * time.Hour).UnixMilli()},
		{ID: "3", Name: "return.pdf", Locator: "file:///a/return.pdf", ParentFolderID: &taxes},
	}
}

func TestFilter_Apply(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want []string
	}{
		{`favorite`, []string{"1"}},
		{`name contains "invoice"`, []string{"1"}},
		{`folder == "taxes"`, []string{"3"}},
		{`folder == "root" && !favorite`, []string{"2"}},
		{`modified > now - 7 * day`, []string{"1"}},
		{`uri startsWith "file:///a/" and id != "2"`, []string{"1", "3"}},
		{`name matches "^m"`, []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)

			got, err := f.Apply(docs(), now)
			require.NoError(t, err)

			var ids []string
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, src := range []string{
		"",
		"name",            // not a bool
		"pages > 3",       // unknown variable
		`favorite &&`,     // syntax
		`name == 3 || id`, // type mismatch
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			assert.Error(t, err)
		})
	}
}
