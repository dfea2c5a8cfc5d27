package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads a PDF body and extracts per-page plain text. Documents
// longer than the configured page cap are skipped so a single filing cannot
// dominate the evidence pool.
func (f *HTTPFetcher) extractPDF(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read pdf body: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	if total > f.cfg.MaxPDFPages {
		return "", fmt.Errorf("pdf has %d pages, limit is %d", total, f.cfg.MaxPDFPages)
	}

	var sb strings.Builder
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			f.logger.Debug("pdf page extraction failed", "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
