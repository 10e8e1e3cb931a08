package domain

import (
	"fmt"
	"time"
)

// ItemType represents the kind of knowledge item
type ItemType string

const (
	ItemTypeDocument ItemType = "document"
	ItemTypeNote     ItemType = "note"
	ItemTypeURL      ItemType = "url"
	ItemTypeText     ItemType = "text"
)

// ItemStatus represents the processing status of a knowledge item
type ItemStatus string

const (
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusReady      ItemStatus = "ready"
	ItemStatusFailed     ItemStatus = "failed"
)

// KnowledgeItem is the unit of retrievable knowledge. The relational row is
// the system of record; the vector index only carries a derived copy.
type KnowledgeItem struct {
	ID           string
	WorkspaceID  string
	CollectionID string
	Type         ItemType
	Status       ItemStatus
	Title        string
	Content      string
	Summary      string
	Embedding    []float32
	Tags         []string
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewKnowledgeItem creates a new KnowledgeItem instance
func NewKnowledgeItem(
	id, workspaceID, collectionID string,
	itemType ItemType,
	status ItemStatus,
	title, content string,
	createdAt, updatedAt time.Time,
) *KnowledgeItem {
	return &KnowledgeItem{
		ID:           id,
		WorkspaceID:  workspaceID,
		CollectionID: collectionID,
		Type:         itemType,
		Status:       status,
		Title:        title,
		Content:      content,
		Tags:         nil,
		Metadata:     map[string]any{},
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// ValidateKnowledgeItem validates a KnowledgeItem instance
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return fmt.Errorf("knowledge item cannot be nil")
	}

	if k.ID == "" {
		return fmt.Errorf("knowledge item ID is required")
	}

	if k.WorkspaceID == "" {
		return fmt.Errorf("knowledge item WorkspaceID is required")
	}

	if k.Title == "" {
		return fmt.Errorf("knowledge item Title is required")
	}

	if !isValidItemType(k.Type) {
		return fmt.Errorf("knowledge item Type is invalid: %s", k.Type)
	}

	if !isValidItemStatus(k.Status) {
		return fmt.Errorf("knowledge item Status is invalid: %s", k.Status)
	}

	return nil
}

// CanTransitionTo reports whether a status change is allowed.
// Processing is the only non-terminal state.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if !isValidItemStatus(next) {
		return false
	}
	if s == next {
		return true
	}
	return s == ItemStatusProcessing
}

// isValidItemType checks if an ItemType is valid
func isValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeDocument, ItemTypeNote, ItemTypeURL, ItemTypeText:
		return true
	}
	return false
}

// isValidItemStatus checks if an ItemStatus is valid
func isValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusProcessing, ItemStatusReady, ItemStatusFailed:
		return true
	}
	return false
}
