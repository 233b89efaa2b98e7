package pdfextractor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// onePagePDF assembles a minimal single-page document around the given
// content-stream text. Object offsets are recorded while writing, so the
// cross-reference table is correct for any content.
func onePagePDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractSinglePage(t *testing.T) {
	t.Parallel()

	got, err := New(zap.NewNop()).Extract(onePagePDF("ORDEM DE SERVICO 123"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if !strings.Contains(got.Text, "ordem de servico 123") {
		t.Fatalf("lowercased page text missing, got %q", got.Text)
	}
	if got.Text != strings.ToLower(got.Text) {
		t.Fatalf("text not folded to lowercase: %q", got.Text)
	}
	if got.Pages != 1 {
		t.Fatalf("pages = %d, want 1", got.Pages)
	}
	if got.SkippedPages != 0 {
		t.Fatalf("skipped = %d, want 0", got.SkippedPages)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	t.Parallel()

	_, err := New(zap.NewNop()).Extract(nil)

	var ee *gazette.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtractCorruptDocument(t *testing.T) {
	t.Parallel()

	// Looks like HTML, not a PDF. Structurally invalid as a whole, so the
	// call must fail rather than degrade page by page.
	data := []byte("<html><body>503 Service Unavailable</body></html>")

	_, err := New(zap.NewNop()).Extract(data)

	var ee *gazette.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if gazette.IsRetryable(err) {
		t.Fatal("extraction failures must not be retryable")
	}
}

func TestExtractTruncatedDocument(t *testing.T) {
	t.Parallel()

	// A real header followed by garbage: no xref, no trailer.
	data := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{0x00, 0xff}, 64)...)

	_, err := New(nil).Extract(data)

	var ee *gazette.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}
