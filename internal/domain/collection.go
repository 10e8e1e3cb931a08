package domain

import (
	"fmt"
	"time"
)

// Collection groups knowledge items inside a workspace
type Collection struct {
	ID          string
	WorkspaceID string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCollection creates a new Collection instance
func NewCollection(id, workspaceID, name, description string, createdAt, updatedAt time.Time) *Collection {
	return &Collection{
		ID:          id,
		WorkspaceID: workspaceID,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// ValidateCollection validates a Collection instance
func ValidateCollection(c *Collection) error {
	if c == nil {
		return fmt.Errorf("collection cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("collection ID is required")
	}

	if c.WorkspaceID == "" {
		return fmt.Errorf("collection WorkspaceID is required")
	}

	if c.Name == "" {
		return fmt.Errorf("collection Name is required")
	}

	return nil
}
