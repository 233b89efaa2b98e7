// Package pdfextractor converts gazette PDF bytes into matchable text.
package pdfextractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// Extractor implements gazette.Extractor. Extraction is best-effort per
// page: a page that cannot be decoded contributes an empty segment and is
// counted as skipped; only a structurally corrupt document fails the call.
type Extractor struct {
	logger *zap.Logger
}

// New builds an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract concatenates all page texts in document order and folds the
// result to lowercase exactly once. Matching downstream does no further
// normalization.
func (e *Extractor) Extract(data []byte) (gazette.ExtractedText, error) {
	if len(data) == 0 {
		return gazette.ExtractedText{}, &gazette.ExtractionError{Err: fmt.Errorf("empty document")}
	}

	// Structural validation gate. pdfcpu rejects documents the text reader
	// would only fail on page by page.
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return gazette.ExtractedText{}, &gazette.ExtractionError{Err: fmt.Errorf("validate document: %w", err)}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return gazette.ExtractedText{}, &gazette.ExtractionError{Err: fmt.Errorf("open document: %w", err)}
	}

	var sb strings.Builder
	skipped := 0
	for i := 1; i <= reader.NumPage(); i++ {
		text, pageErr := pageText(reader, i)
		if pageErr != nil {
			skipped++
			e.logger.Warn("page text extraction failed",
				zap.Int("page", i),
				zap.Error(pageErr),
			)
			continue
		}
		sb.WriteString(text)
	}
	if skipped > 0 {
		e.logger.Info("extraction skipped unreadable pages",
			zap.Int("skipped", skipped),
			zap.Int("pages", pageCount),
		)
	}

	return gazette.ExtractedText{
		Text:         strings.ToLower(sb.String()),
		Pages:        pageCount,
		SkippedPages: skipped,
	}, nil
}

// pageText decodes one page. The pdf library panics on some malformed
// content streams; a panic is absorbed into the per-page error so the rest
// of the document still contributes.
func pageText(reader *pdf.Reader, index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page decode panic: %v", r)
		}
	}()

	page := reader.Page(index)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d missing", index)
	}
	return page.GetPlainText(nil)
}
