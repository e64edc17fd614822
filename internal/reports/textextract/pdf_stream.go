package textextract

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TJ adjustments at or below this (thousandths of an em) are read as a word gap
const tjWordGap = -200

// PDFStreamExtractor decodes text-showing operators straight from each page's
// content stream. It is the fallback for files the row reader rejects.
type PDFStreamExtractor struct{}

func NewPDFStreamExtractor() *PDFStreamExtractor {
	return &PDFStreamExtractor{}
}

func (e *PDFStreamExtractor) Name() string {
	return "pdf-stream"
}

func (e *PDFStreamExtractor) CanExtract(data []byte) bool {
	return IsPDF(data)
}

func (e *PDFStreamExtractor) Extract(ctx context.Context, data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		sb.WriteString(normalizeLines(streamText(content)))
	}

	return &Document{Text: sb.String(), Pages: pctx.PageCount, Method: e.Name()}, nil
}

// streamText interprets the text operators of a content stream. Line-advancing
// operators become newlines; everything that is not text is skipped.
func streamText(content []byte) string {
	var (
		sb       strings.Builder
		numbers  []float64
		strs     []string
		inArray  bool
		lastByte byte
	)

	write := func(s string) {
		if s == "" {
			return
		}
		sb.WriteString(s)
		lastByte = s[len(s)-1]
	}
	newline := func() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
			lastByte = '\n'
		}
	}
	softNewline := func() {
		if sb.Len() > 0 && lastByte != '\n' {
			newline()
		}
	}

	apply := func(op string) {
		switch op {
		case "Tj", "TJ":
			write(strings.Join(strs, ""))
		case "'", `"`:
			newline()
			write(strings.Join(strs, ""))
		case "Td", "TD":
			if len(numbers) >= 2 && numbers[len(numbers)-1] != 0 {
				newline()
			} else if sb.Len() > 0 && lastByte != ' ' && lastByte != '\n' {
				write(" ")
			}
		case "T*":
			newline()
		case "BT", "Tm":
			softNewline()
		}
		numbers, strs = numbers[:0], strs[:0]
	}

	b := content
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(b) && b[i] != '\n' && b[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := readLiteral(b[i:])
			strs = append(strs, s)
			i += n
		case c == '<' && i+1 < len(b) && b[i+1] == '<', c == '>' && i+1 < len(b) && b[i+1] == '>':
			i += 2
		case c == '<':
			end := bytes.IndexByte(b[i:], '>')
			if end < 0 {
				end = len(b) - i
			}
			strs = append(strs, readHex(b[i+1:i+end]))
			i += end + 1
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case c == '/':
			i++
			for i < len(b) && !isPDFSpace(b[i]) && !isPDFDelimiter(b[i]) {
				i++
			}
		default:
			start := i
			for i < len(b) && !isPDFSpace(b[i]) && !isPDFDelimiter(b[i]) {
				i++
			}
			if i == start {
				// stray delimiter
				i++
				continue
			}
			tok := string(b[start:i])
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				if inArray {
					if f <= tjWordGap {
						strs = append(strs, " ")
					}
					continue
				}
				numbers = append(numbers, f)
				continue
			}
			apply(tok)
		}
	}
	return sb.String()
}

// readLiteral decodes a (...) string starting at b[0]; it returns the text and
// the number of bytes consumed. Bytes are read as Latin-1.
func readLiteral(b []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '\\' && i+1 < len(b):
			i++
			switch e := b[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r':
				if i+1 < len(b) && b[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(b) && b[i+1] >= '0' && b[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(b[i]-'0')
					}
					sb.WriteRune(rune(byte(val)))
				} else {
					sb.WriteRune(rune(e))
				}
			}
		case c == '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
		default:
			sb.WriteRune(rune(c))
		}
	}
	return sb.String(), len(b)
}

func readHex(b []byte) string {
	digits := make([]byte, 0, len(b))
	for _, c := range b {
		if !isPDFSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw, err := hex.DecodeString(string(digits))
	if err != nil {
		return ""
	}
	runes := make([]rune, len(raw))
	for i, c := range raw {
		runes[i] = rune(c)
	}
	return string(runes)
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
