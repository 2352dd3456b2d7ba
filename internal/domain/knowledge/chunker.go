package knowledge

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, in characters
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Chunker splits document text into overlapping chunks.
// Paragraph boundaries are preferred; long paragraphs are split on words.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker, falling back to defaults for invalid values
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the maximum chunk length in characters
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters carried into the next chunk
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the chunk texts in document order
func (c *Chunker) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var segments []string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		segments = append(segments, c.splitParagraph(para)...)
	}

	var chunks []string
	var current string
	for _, seg := range segments {
		if current == "" {
			current = seg
			continue
		}
		if runeLen(current)+2+runeLen(seg) <= c.size {
			current += "\n\n" + seg
			continue
		}
		chunks = append(chunks, current)
		current = seg
		if tail := c.tail(chunks[len(chunks)-1]); tail != "" && runeLen(tail)+1+runeLen(seg) <= c.size {
			current = tail + " " + seg
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitParagraph packs the words of a long paragraph into pieces of at most size characters
func (c *Chunker) splitParagraph(para string) []string {
	if runeLen(para) <= c.size {
		return []string{para}
	}
	var pieces []string
	var b strings.Builder
	for _, word := range strings.Fields(para) {
		for runeLen(word) > c.size {
			if b.Len() > 0 {
				pieces = append(pieces, b.String())
				b.Reset()
			}
			head, rest := splitRunes(word, c.size)
			pieces = append(pieces, head)
			word = rest
		}
		if word == "" {
			continue
		}
		if b.Len() > 0 && runeLen(b.String())+1+runeLen(word) > c.size {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}

// tail returns the last overlap characters of s, starting on a word boundary
func (c *Chunker) tail(s string) string {
	if c.overlap == 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= c.overlap {
		return ""
	}
	t := string(runes[len(runes)-c.overlap:])
	if i := strings.IndexAny(t, " \n"); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(strings.ReplaceAll(t, "\n\n", " "))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func splitRunes(s string, n int) (string, string) {
	runes := []rune(s)
	if len(runes) <= n {
		return s, ""
	}
	return string(runes[:n]), string(runes[n:])
}
