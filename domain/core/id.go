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
	// SweepID tags every log line and stored result of one CLI invocation.
	SweepID ID
	// AssessmentID identifies one scored run in the results store.
	AssessmentID ID
)

func (id SweepID) String() string      { return ID(id).String() }
func (id AssessmentID) String() string { return ID(id).String() }

// NewSweepID creates a fresh sweep identifier
func NewSweepID() SweepID { return SweepID(NewID()) }

// NewAssessmentID creates a fresh assessment identifier
func NewAssessmentID() AssessmentID { return AssessmentID(NewID()) }

// ParseSweepID parses a string into SweepID
func ParseSweepID(s string) (SweepID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("sweep ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("sweep ID %q is not a UUID: %w", s, err)
	}
	return SweepID(s), nil
}
