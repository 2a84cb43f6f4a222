package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// BatchID identifies one generation batch. Hypothesis IDs are only
	// meaningful inside the batch that carries them.
	BatchID ID
	// SummaryID is the optional identifier supplied by the Data Agent.
	SummaryID ID
)

// NewBatchID creates a time-ordered batch identifier
func NewBatchID() BatchID { return BatchID(NewID()) }

// String conversions for domain IDs
func (id BatchID) String() string   { return ID(id).String() }
func (id SummaryID) String() string { return ID(id).String() }

// ParseBatchID parses a string into BatchID
func ParseBatchID(s string) (BatchID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("batch ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("batch ID %q is not a UUID: %w", s, err)
	}
	return BatchID(s), nil
}
