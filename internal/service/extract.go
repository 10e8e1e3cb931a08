package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"golang.org/x/net/html"

	"github.com/vantagehq/vantage/internal/domain"
)

// ExtractText pulls plain text out of an uploaded file. The format is
// chosen by extension first and content type second; anything unrecognized
// is decoded as UTF-8 text, with invalid bytes replaced rather than
// rejected, so an odd upload still yields a usable item.
func ExtractText(ctx context.Context, file FileInput) (string, error) {
	switch detectFormat(file) {
	case "pdf":
		return extractPDF(ctx, file.Data)
	case "docx":
		return extractDOCX(file.Data)
	case "html":
		return extractHTML(file.Data)
	default:
		return strings.ToValidUTF8(string(file.Data), "\uFFFD"), nil
	}
}

func detectFormat(file FileInput) string {
	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	case ".html", ".htm":
		return "html"
	case ".txt", ".md", ".markdown":
		return "text"
	}
	switch {
	case strings.Contains(file.ContentType, "pdf"):
		return "pdf"
	case strings.Contains(file.ContentType, "wordprocessingml"):
		return "docx"
	case strings.Contains(file.ContentType, "html"):
		return "html"
	}
	return "text"
}

func extractPDF(ctx context.Context, data []byte) (string, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed, "failed to parse PDF", err)
	}
	pages := make([]string, 0, len(docs))
	for _, d := range docs {
		if text := strings.TrimSpace(d.PageContent); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeExtractionFailed, "PDF contains no extractable text")
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractHTML walks the parsed document collecting text nodes, skipping
// script and style subtrees.
func extractHTML(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed, "failed to parse HTML", err)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, " "), nil
}
