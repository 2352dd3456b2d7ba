// Package extract turns uploaded knowledge documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/payaid/backend/internal/domain/knowledge"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrNoText is returned when a document yields no readable text
	ErrNoText = errors.New("no text could be extracted from the document")

	// ErrUnsupported is returned for source types without an extractor
	ErrUnsupported = errors.New("unsupported document type")
)

// Extractor reads text out of a document body
type Extractor struct {
	maxBytes int64
}

// New creates an extractor that refuses bodies larger than maxBytes (0 = no limit)
func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

// Extract reads r fully and returns its text
func (e *Extractor) Extract(r io.Reader, sourceType knowledge.SourceType) (string, error) {
	if e.maxBytes > 0 {
		r = io.LimitReader(r, e.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("document exceeds %d bytes", e.maxBytes)
	}

	var text string
	switch sourceType {
	case knowledge.SourceTypePDF:
		text, err = PDFText(data)
	case knowledge.SourceTypeText, knowledge.SourceTypeMarkdown:
		text, err = PlainText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, sourceType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// PlainText decodes UTF-8, dropping a byte order mark. Input that is not valid
// UTF-8 is read as Windows-1252, the usual encoding of legacy exports.
func PlainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return normalizeNewlines(string(data)), nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return normalizeNewlines(string(decoded)), nil
}

// PDFText extracts the text layer of a PDF, page by page
func PDFText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(content))
	}
	return b.String(), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
