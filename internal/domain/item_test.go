package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		typeVal  ItemType
		expected string
	}{
		{"Document", ItemTypeDocument, "document"},
		{"Note", ItemTypeNote, "note"},
		{"URL", ItemTypeURL, "url"},
		{"Text", ItemTypeText, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.typeVal))
		})
	}
}

func TestItemStatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		status   ItemStatus
		expected string
	}{
		{"Processing", ItemStatusProcessing, "processing"},
		{"Ready", ItemStatusReady, "ready"},
		{"Failed", ItemStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestNewKnowledgeItem(t *testing.T) {
	now := time.Now()
	item := NewKnowledgeItem(
		"item1",
		"ws1",
		"col1",
		ItemTypeDocument,
		ItemStatusProcessing,
		"Test Title",
		"Test content",
		now,
		now,
	)

	assert.Equal(t, "item1", item.ID)
	assert.Equal(t, "ws1", item.WorkspaceID)
	assert.Equal(t, "col1", item.CollectionID)
	assert.Equal(t, ItemTypeDocument, item.Type)
	assert.Equal(t, ItemStatusProcessing, item.Status)
	assert.Equal(t, "Test Title", item.Title)
	assert.Equal(t, "Test content", item.Content)
	assert.Equal(t, now, item.CreatedAt)
	assert.Equal(t, now, item.UpdatedAt)
	assert.Empty(t, item.Tags)
	assert.NotNil(t, item.Metadata)
}

func TestValidateKnowledgeItem(t *testing.T) {
	now := time.Now()

	valid := func() *KnowledgeItem {
		return NewKnowledgeItem("item1", "ws1", "", ItemTypeNote, ItemStatusReady, "Title", "content", now, now)
	}

	t.Run("valid item", func(t *testing.T) {
		assert.NoError(t, ValidateKnowledgeItem(valid()))
	})

	t.Run("nil item", func(t *testing.T) {
		assert.Error(t, ValidateKnowledgeItem(nil))
	})

	t.Run("missing ID", func(t *testing.T) {
		item := valid()
		item.ID = ""
		assert.Error(t, ValidateKnowledgeItem(item))
	})

	t.Run("missing workspace", func(t *testing.T) {
		item := valid()
		item.WorkspaceID = ""
		assert.Error(t, ValidateKnowledgeItem(item))
	})

	t.Run("missing title", func(t *testing.T) {
		item := valid()
		item.Title = ""
		assert.Error(t, ValidateKnowledgeItem(item))
	})

	t.Run("invalid type", func(t *testing.T) {
		item := valid()
		item.Type = "spreadsheet"
		assert.Error(t, ValidateKnowledgeItem(item))
	})

	t.Run("invalid status", func(t *testing.T) {
		item := valid()
		item.Status = "pending"
		assert.Error(t, ValidateKnowledgeItem(item))
	})
}

func TestItemStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ItemStatus
		to      ItemStatus
		allowed bool
	}{
		{"processing to ready", ItemStatusProcessing, ItemStatusReady, true},
		{"processing to failed", ItemStatusProcessing, ItemStatusFailed, true},
		{"ready to processing", ItemStatusReady, ItemStatusProcessing, false},
		{"ready to failed", ItemStatusReady, ItemStatusFailed, false},
		{"failed to ready", ItemStatusFailed, ItemStatusReady, false},
		{"same state", ItemStatusReady, ItemStatusReady, true},
		{"unknown target", ItemStatusProcessing, "archived", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
