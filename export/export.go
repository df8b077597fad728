package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodgram/metrics"
	"foodgram/recipes"

	"github.com/phpdave11/gofpdf"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

var ErrUnknownFormat = errors.New("unknown shopping list format")

// ParseFormat accepts "txt" (also the empty string) and "pdf".
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// Document is a rendered shopping list ready to be sent as an attachment.
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Renderer renders shopping lists. SiteURL is encoded as a QR code on PDF
// documents and skipped when empty.
type Renderer struct {
	SiteURL string
	Now     func() time.Time
}

func (r Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}

	return time.Now()
}

func (r Renderer) Render(format Format, owner string, lines []recipes.ShoppingListLine) (*Document, error) {
	var (
		doc *Document
		err error
	)

	switch format {
	case FormatText:
		doc = &Document{
			Content:     Text(lines),
			ContentType: "text/plain; charset=utf-8",
			Filename:    "shopping_list.txt",
		}
	case FormatPDF:
		var content []byte
		content, err = r.PDF(owner, lines)
		doc = &Document{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    "shopping_list.pdf",
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	metrics.ShoppingListDownloads.WithLabelValues(string(format)).Inc()

	return doc, nil
}

// Text renders the plain text shopping list.
func Text(lines []recipes.ShoppingListLine) []byte {
	return []byte(recipes.RenderShoppingList(lines))
}

// PDF renders an A4 page with a title, one row per line and a QR code
// pointing back to the site.
func (r Renderer) PDF(owner string, lines []recipes.ShoppingListLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Shopping list", true)
	pdf.SetCreator("foodgram", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Shopping list")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	subtitle := r.now().Format("2006-01-02 15:04")
	if owner != "" {
		subtitle = owner + ", " + subtitle
	}
	pdf.Cell(0, 8, tr(subtitle))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	if len(lines) == 0 {
		pdf.Cell(0, 8, "Your shopping cart is empty.")
		pdf.Ln(8)
	}
	for i, line := range lines {
		pdf.CellFormat(10, 8, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.CellFormat(110, 8, tr(line.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d %s", line.Amount, tr(line.MeasurementUnit)), "", 1, "R", false, 0, "")
	}

	if r.SiteURL != "" {
		qrPNG, err := qrcode.Encode(r.SiteURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode site qr code: %w", err)
		}

		imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("site", imageOpts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("site", 160, 15, 30, 30, false, imageOpts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		log.Error().Err(err).Int("lines", len(lines)).Msg("failed to render shopping list pdf")

		return nil, fmt.Errorf("render shopping list pdf: %w", err)
	}

	return buf.Bytes(), nil
}
