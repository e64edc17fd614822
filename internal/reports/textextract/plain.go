package textextract

import (
	"bytes"
	"context"
	"unicode/utf8"
)

// PlainTextExtractor accepts uploads that are already text, such as a report
// copied out of a vendor portal.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Name() string {
	return "text"
}

func (e *PlainTextExtractor) CanExtract(data []byte) bool {
	return len(data) > 0 && !IsPDF(data) && utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}

func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	return &Document{Text: normalizeLines(text), Pages: 1, Method: e.Name()}, nil
}
