package export

import (
	"bytes"
	"testing"
	"time"

	"foodgram/recipes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lines = []recipes.ShoppingListLine{
	{Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
	{Name: "Salt", MeasurementUnit: "g", Amount: 25},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "txt", want: FormatText},
		{in: "PDF", want: FormatPDF},
		{in: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderText(t *testing.T) {
	doc, err := Renderer{}.Render(FormatText, "alice", lines)
	require.NoError(t, err)

	assert.Equal(t, "Egg (pcs) — 2\nSalt (g) — 25\n", string(doc.Content))
	assert.Equal(t, "shopping_list.txt", doc.Filename)
	assert.Contains(t, doc.ContentType, "text/plain")
}

func TestRenderPDF(t *testing.T) {
	renderer := Renderer{
		SiteURL: "https://foodgram.example.com",
		Now:     func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}

	for name, input := range map[string][]recipes.ShoppingListLine{
		"with lines": lines,
		"empty":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := renderer.Render(FormatPDF, "alice", input)
			require.NoError(t, err)

			assert.Equal(t, "application/pdf", doc.ContentType)
			assert.Equal(t, "shopping_list.pdf", doc.Filename)
			assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))
		})
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Renderer{}.Render(Format("xml"), "", lines)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
