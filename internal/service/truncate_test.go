package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForModel(t *testing.T) {
	t.Run("under limit unchanged", func(t *testing.T) {
		assert.Equal(t, "short", TruncateForModel("short", 100))
	})

	t.Run("exact limit unchanged", func(t *testing.T) {
		assert.Equal(t, "12345", TruncateForModel("12345", 5))
	})

	t.Run("cuts at word boundary", func(t *testing.T) {
		got := TruncateForModel("alpha beta gamma", 12)
		assert.Equal(t, "alpha beta", got)
	})

	t.Run("single unbroken token keeps hard cut", func(t *testing.T) {
		got := TruncateForModel(strings.Repeat("x", 50), 10)
		assert.Equal(t, strings.Repeat("x", 10), got)
	})

	t.Run("never exceeds limit", func(t *testing.T) {
		for _, max := range []int{1, 7, 33, 100} {
			got := TruncateForModel(strings.Repeat("word ", 200), max)
			assert.LessOrEqual(t, len(got), max)
		}
	})

	t.Run("non-positive limit is a no-op", func(t *testing.T) {
		assert.Equal(t, "anything", TruncateForModel("anything", 0))
	})
}
