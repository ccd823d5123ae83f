package metadata

import (
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NewPriority normalizes user input; an empty value means normal priority.
func NewPriority(value string) (Priority, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return PriorityNormal, nil
	}

	priority := Priority(normalized)
	switch priority {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return priority, nil
	default:
		return "", fmt.Errorf("invalid priority: %s", value)
	}
}

func (p Priority) String() string {
	return string(p)
}
