package service

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/vantagehq/vantage/internal/domain"
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed, "failed to parse DOCX", err)
	}

	var parts []string
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			if t := strings.TrimSpace(block.String()); t != "" {
				parts = append(parts, t)
			}
		case *docx.Table:
			if t := strings.TrimSpace(block.String()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeExtractionFailed, "DOCX contains no extractable text")
	}
	return strings.Join(parts, "\n"), nil
}
