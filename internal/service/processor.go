package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/telemetry"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200

	keywordInputMaxChars = 4000
	enrichTemperature    = 0.2
)

var wordPattern = regexp.MustCompile(`\w+`)

// FileInput is an uploaded file handed to the processor
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProcessOptions selects which enrichment steps run
type ProcessOptions struct {
	GenerateSummary    bool
	GenerateEmbeddings bool
	ExtractKeywords    bool
}

// DefaultProcessOptions enables every enrichment step
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		GenerateSummary:    true,
		GenerateEmbeddings: true,
		ExtractKeywords:    true,
	}
}

// ProcessedDocument is the outcome of processing one file. Degraded holds
// the names of enrichment steps that failed without failing the document.
type ProcessedDocument struct {
	Content        string
	Summary        string
	Embedding      []float32
	Keywords       []string
	WordCount      int
	Model          string
	ProcessingTime time.Duration
	Degraded       []string
}

// SuggestInput carries a document and the workspace's existing collections
// for category suggestion
type SuggestInput struct {
	Title       string
	Content     string
	Type        domain.ItemType
	Collections []string
}

// CategorySuggestion is the model's organization proposal for a document
type CategorySuggestion struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
}

// DocumentProcessor turns uploaded files into searchable knowledge: text
// extraction is mandatory, every model-backed enrichment is best-effort.
type DocumentProcessor struct {
	completion CompletionClient
	embedding  EmbeddingClient
	splitter   textsplitter.TextSplitter
}

// NewDocumentProcessor creates a new DocumentProcessor instance
func NewDocumentProcessor(completion CompletionClient, embedding EmbeddingClient) *DocumentProcessor {
	return &DocumentProcessor{
		completion: completion,
		embedding:  embedding,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// ProcessDocument extracts text from a file and enriches it. Extraction
// failure fails the document; a failed summary, keyword, or embedding step
// only lands in Degraded so partial results still reach the caller.
func (p *DocumentProcessor) ProcessDocument(ctx context.Context, file FileInput, opts ProcessOptions) (*ProcessedDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentProcessor.ProcessDocument", telemetry.SpanAttributes{
		Operation: "process",
	})
	defer span.End()

	start := time.Now()

	content, err := ExtractText(ctx, file)
	if err != nil {
		return nil, err
	}

	doc := &ProcessedDocument{
		Content:   content,
		WordCount: countWords(content),
		Model:     p.completion.Model(),
	}

	if opts.GenerateSummary {
		summary, err := p.generateSummary(ctx, content)
		if err != nil {
			log.Printf("summary generation failed for %s: %v", file.Name, err)
			doc.Degraded = append(doc.Degraded, "summary")
		} else {
			doc.Summary = summary
		}
	}

	if opts.ExtractKeywords {
		keywords, err := p.extractKeywords(ctx, content)
		if err != nil {
			log.Printf("keyword extraction failed for %s: %v", file.Name, err)
			doc.Degraded = append(doc.Degraded, "keywords")
		} else {
			doc.Keywords = keywords
		}
	}

	if opts.GenerateEmbeddings {
		embedding, err := p.EmbedContent(ctx, content)
		if err != nil {
			log.Printf("embedding failed for %s: %v", file.Name, err)
			doc.Degraded = append(doc.Degraded, "embedding")
		} else {
			doc.Embedding = embedding
		}
	}

	doc.ProcessingTime = time.Since(start)
	return doc, nil
}

// EmbedContent produces one embedding for a document of any length. Short
// documents are embedded directly; long ones are split into overlapping
// chunks whose embeddings are mean-pooled and re-normalized.
func (p *DocumentProcessor) EmbedContent(ctx context.Context, content string) ([]float32, error) {
	chunks, err := p.splitter.SplitText(content)
	if err != nil || len(chunks) <= 1 {
		return p.embedding.GenerateEmbedding(ctx, TruncateForModel(content, EmbeddingInputMaxChars))
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := p.embedding.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return l2Normalize(meanPool(vectors)), nil
}

func (p *DocumentProcessor) generateSummary(ctx context.Context, content string) (string, error) {
	system := "You are a concise technical summarizer for a knowledge base."
	user := "Summarize the following content in 5-7 concise bullet points. " +
		"Focus on facts, entities, and key takeaways.\n\n" +
		TruncateForModel(content, SummaryInputMaxChars)

	summary, err := p.completion.Complete(ctx, system, user, enrichTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// extractKeywords asks the model for a strict JSON array of keywords.
// A response that does not parse yields an empty list, not an error: bad
// model output must never block ingestion.
func (p *DocumentProcessor) extractKeywords(ctx context.Context, content string) ([]string, error) {
	system := "Extract 5-12 relevant keywords from the document. " +
		"Respond with a JSON array of strings only, no prose."
	user := TruncateForModel(content, keywordInputMaxChars)

	raw, err := p.completion.Complete(ctx, system, user, enrichTemperature)
	if err != nil {
		return nil, err
	}

	var keywords []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &keywords); err != nil {
		log.Printf("keyword response did not parse as JSON array: %v", err)
		return []string{}, nil
	}
	return keywords, nil
}

// SuggestCategories proposes collections and tags for a document based on
// its content and the workspace's existing collection names. An unparsable
// model response degrades to an empty suggestion with default confidence.
func (p *DocumentProcessor) SuggestCategories(ctx context.Context, input SuggestInput) (*CategorySuggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentProcessor.SuggestCategories", telemetry.SpanAttributes{
		Operation: "suggest_categories",
	})
	defer span.End()

	system := "You organize documents in a knowledge base. " +
		"Given a document, suggest categories and tags. Prefer existing collections when they fit. " +
		`Respond with strict JSON: {"categories": [...], "tags": [...], "confidence": 0.0-1.0}. No prose.`
	user := fmt.Sprintf("Title: %s\nType: %s\nExisting collections: %s\n---\n%s",
		input.Title,
		input.Type,
		strings.Join(input.Collections, ", "),
		TruncateForModel(input.Content, CategoryInputMaxChars),
	)

	raw, err := p.completion.Complete(ctx, system, user, enrichTemperature)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEnrichmentFailed, "category suggestion failed", err)
	}

	suggestion := &CategorySuggestion{Confidence: 0.6}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), suggestion); err != nil {
		log.Printf("category response did not parse as JSON object: %v", err)
		return &CategorySuggestion{Categories: []string{}, Tags: []string{}, Confidence: 0.6}, nil
	}
	if suggestion.Categories == nil {
		suggestion.Categories = []string{}
	}
	if suggestion.Tags == nil {
		suggestion.Tags = []string{}
	}
	if suggestion.Confidence <= 0 || suggestion.Confidence > 1 {
		suggestion.Confidence = 0.6
	}
	return suggestion, nil
}

func countWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// stripCodeFence unwraps a ```json fenced block when the model ignores the
// no-prose instruction but still returns valid JSON inside a fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
