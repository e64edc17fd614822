// Package textextract turns an uploaded byte buffer into the page text the
// report processors consume: one line per visual row, pages concatenated,
// each page followed by a single newline.
package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

var (
	// ErrNoText is returned when a document yields no usable text
	ErrNoText = errors.New("no extractable text")
	// ErrUnsupportedFormat is returned when no extractor accepts the buffer
	ErrUnsupportedFormat = errors.New("unrecognised document format")
)

var pdfMagic = []byte("%PDF-")

// Document is the extracted text of one upload
type Document struct {
	Text   string
	Pages  int
	Method string
}

// Extractor pulls page text out of one kind of document
type Extractor interface {
	// Name identifies the extraction method in results and logs
	Name() string

	// CanExtract reports whether the buffer looks like something this extractor reads
	CanExtract(data []byte) bool

	// Extract returns the document text; it must not retain data
	Extract(ctx context.Context, data []byte) (*Document, error)
}

// IsPDF reports whether data carries a PDF header in its first kilobyte
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfMagic)
}

// Chain tries its extractors in order and returns the first document with
// enough text. It is the document-level failure boundary: anything it
// rejects is unreadable.
type Chain struct {
	extractors    []Extractor
	minTextLength int
	log           *logger.Logger
}

// NewChain creates a chain; minTextLength counts non-space characters
func NewChain(minTextLength int, log *logger.Logger, extractors ...Extractor) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{
		extractors:    extractors,
		minTextLength: minTextLength,
		log:           log.WithComponent("textextract"),
	}
}

// DefaultChain reads PDFs row by row, falls back to raw content streams, and
// passes plain text uploads through.
func DefaultChain(minTextLength int, log *logger.Logger) *Chain {
	return NewChain(minTextLength, log,
		NewPDFRowExtractor(),
		NewPDFStreamExtractor(),
		NewPlainTextExtractor(),
	)
}

// Extract runs the chain over data
func (c *Chain) Extract(ctx context.Context, data []byte) (*Document, error) {
	var lastErr error
	tried := 0

	for _, e := range c.extractors {
		if !e.CanExtract(data) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tried++

		doc, err := e.Extract(ctx, data)
		if err != nil {
			c.log.Warn().Err(err).Str("extractor", e.Name()).Msg("extractor failed, trying next")
			lastErr = fmt.Errorf("%s: %w", e.Name(), err)
			continue
		}
		if n := textLength(doc.Text); n < c.minTextLength {
			c.log.Warn().
				Str("extractor", e.Name()).
				Int("chars", n).
				Int("pages", doc.Pages).
				Msg("extractor returned too little text, trying next")
			lastErr = fmt.Errorf("%s: %w", e.Name(), ErrNoText)
			continue
		}

		c.log.Debug().
			Str("extractor", e.Name()).
			Int("pages", doc.Pages).
			Int("bytes", len(doc.Text)).
			Msg("text extracted")
		return doc, nil
	}

	if tried == 0 {
		return nil, ErrUnsupportedFormat
	}
	return nil, lastErr
}

func textLength(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// normalizeLines trims trailing blanks on every line and ends the page with
// exactly one newline. Interior blank lines are kept; section terminators
// depend on them.
func normalizeLines(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	out := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
