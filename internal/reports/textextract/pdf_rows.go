package textextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFRowExtractor reads PDF text grouped into rows by vertical position,
// top to bottom, which keeps label/value pairs on one line.
type PDFRowExtractor struct{}

func NewPDFRowExtractor() *PDFRowExtractor {
	return &PDFRowExtractor{}
}

func (e *PDFRowExtractor) Name() string {
	return "pdf-rows"
}

func (e *PDFRowExtractor) CanExtract(data []byte) bool {
	return IsPDF(data)
}

func (e *PDFRowExtractor) Extract(ctx context.Context, data []byte) (doc *Document, err error) {
	// the reader panics on some malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(normalizeLines(joinRows(rows)))
	}

	return &Document{Text: sb.String(), Pages: total, Method: e.Name()}, nil
}

// wordGap is the horizontal gap between two runs, as a fraction of the font
// size, above which they are separate words. Kerned TJ arrays and split Tj
// runs sit closer than this and are concatenated.
const (
	wordGap         = 0.2
	defaultFontSize = 10.0
)

func joinRows(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for i, t := range row.Content {
			if i > 0 && separated(row.Content[i-1], t) {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.S)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// separated reports whether next starts far enough right of prev's end to be
// a new word
func separated(prev, next pdf.Text) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	size := prev.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	return next.X-(prev.X+prev.W) > wordGap*size
}
