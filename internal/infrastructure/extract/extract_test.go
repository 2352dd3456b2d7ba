package extract

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page
func buildPDF(pages ...string) []byte {
	var objects []string
	kids := make([]string, len(pages))
	// 1: catalog, 2: pages, 3: font, then page/content pairs
	for i, text := range pages {
		pageNum := 4 + i*2
		kids[i] = fmt.Sprintf("%d 0 R", pageNum)
		stream := fmt.Sprintf("BT /F1 18 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects = append([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}, objects...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtract_PDF(t *testing.T) {
	data := buildPDF("Leave policy allows 24 days", "Reimbursements within 7 days")

	text, err := New(0).Extract(bytes.NewReader(data), knowledge.SourceTypePDF)
	require.NoError(t, err)
	assert.Contains(t, text, "Leave policy allows 24 days")
	assert.Contains(t, text, "Reimbursements within 7 days")
	assert.Less(t, strings.Index(text, "Leave"), strings.Index(text, "Reimbursements"))
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, err := New(0).Extract(strings.NewReader("not a pdf at all"), knowledge.SourceTypePDF)
	require.Error(t, err)
}

func TestExtract_Text(t *testing.T) {
	text, err := New(0).Extract(strings.NewReader("\xef\xbb\xbf# Title\r\nBody\rMore"), knowledge.SourceTypeMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "# Title\nBody\nMore", text)
}

func TestExtract_Windows1252Fallback(t *testing.T) {
	// "café €5" in Windows-1252
	text, err := PlainText([]byte{'c', 'a', 'f', 0xe9, ' ', 0x80, '5'})
	require.NoError(t, err)
	assert.Equal(t, "café €5", text)
}

func TestExtract_Errors(t *testing.T) {
	_, err := New(0).Extract(strings.NewReader("   \n\t"), knowledge.SourceTypeText)
	assert.ErrorIs(t, err, ErrNoText)

	_, err = New(0).Extract(strings.NewReader("x"), knowledge.SourceType("docx"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = New(4).Extract(strings.NewReader("too long"), knowledge.SourceTypeText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")

	text, err := New(4).Extract(strings.NewReader("fits"), knowledge.SourceTypeText)
	require.NoError(t, err)
	assert.Equal(t, "fits", text)
}
