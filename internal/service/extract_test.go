package service

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainText(t *testing.T) {
	got, err := ExtractText(context.Background(), FileInput{
		Name: "readme.md",
		Data: []byte("# Title\n\nbody text"),
	})
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody text", got)
}

func TestExtractText_UnknownBinaryDecodedLossily(t *testing.T) {
	got, err := ExtractText(context.Background(), FileInput{
		Name: "blob.bin",
		Data: []byte{'o', 'k', 0xff, 0xfe, '!'},
	})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "ok")
	assert.Contains(t, got, "!")
	assert.Contains(t, got, "\uFFFD")
}

func TestExtractText_HTML(t *testing.T) {
	page := `<html><head><title>Runbook</title><style>p{color:red}</style></head>` +
		`<body><script>alert("hi")</script><h1>Deploys</h1><p>Use the pipeline.</p></body></html>`

	got, err := ExtractText(context.Background(), FileInput{Name: "page.html", Data: []byte(page)})

	require.NoError(t, err)
	assert.Contains(t, got, "Deploys")
	assert.Contains(t, got, "Use the pipeline.")
	assert.NotContains(t, got, "alert")
	assert.NotContains(t, got, "color:red")
}

func TestExtractText_HTMLByContentType(t *testing.T) {
	got, err := ExtractText(context.Background(), FileInput{
		Name:        "download",
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<p>hello</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText(context.Background(), FileInput{
		Name: "doc.pdf",
		Data: []byte("definitely not a pdf"),
	})
	assert.Error(t, err)
}

func TestExtractText_CorruptDOCX(t *testing.T) {
	_, err := ExtractText(context.Background(), FileInput{
		Name: "doc.docx",
		Data: []byte("definitely not a zip archive"),
	})
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		want        string
	}{
		{"pdf extension", "report.PDF", "", "pdf"},
		{"docx extension", "notes.docx", "", "docx"},
		{"html extension", "index.htm", "", "html"},
		{"markdown", "readme.md", "", "text"},
		{"pdf content type", "download", "application/pdf", "pdf"},
		{"docx content type", "download", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
		{"unknown defaults to text", "data", "application/octet-stream", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFormat(FileInput{Name: tt.fileName, ContentType: tt.contentType})
			assert.Equal(t, tt.want, got)
		})
	}
}
