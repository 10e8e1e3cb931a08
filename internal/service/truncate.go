package service

import "strings"

const (
	// EmbeddingInputMaxChars bounds text sent to the embedding model.
	EmbeddingInputMaxChars = 8000
	// SummaryInputMaxChars bounds text sent for summarization.
	SummaryInputMaxChars = 6000
	// CategoryInputMaxChars bounds text sent for category suggestion.
	CategoryInputMaxChars = 3000
)

// TruncateForModel trims text to at most maxChars characters before it is
// sent to a model. When a cut is needed it backs up to the last word
// boundary inside the window so the model never sees a torn word, unless
// the window holds a single unbroken token.
func TruncateForModel(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n")
}
