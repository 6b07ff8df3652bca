package model

import "fmt"

// EntryStatus represents the lifecycle state of an Entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusRunning   EntryStatus = "RUNNING"
	EntryStatusSucceeded EntryStatus = "SUCCEEDED"
	EntryStatusFailed    EntryStatus = "FAILED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// AllEntryStatuses lists every status in lifecycle order.
var AllEntryStatuses = []EntryStatus{
	EntryStatusPending,
	EntryStatusRunning,
	EntryStatusSucceeded,
	EntryStatusFailed,
	EntryStatusCancelled,
}

// String returns the string representation of the entry status.
func (s EntryStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is allowed from s.
func (s EntryStatus) IsTerminal() bool {
	switch s {
	case EntryStatusSucceeded, EntryStatusFailed, EntryStatusCancelled:
		return true
	}
	return false
}

// IsValid reports whether s is one of the known statuses.
func (s EntryStatus) IsValid() bool {
	for _, known := range AllEntryStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidEntryTransitions defines the allowed state transitions for Entries.
// Terminal statuses have no outgoing edges.
var ValidEntryTransitions = map[EntryStatus][]EntryStatus{
	EntryStatusPending: {EntryStatusRunning, EntryStatusCancelled},
	EntryStatusRunning: {EntryStatusSucceeded, EntryStatusFailed, EntryStatusCancelled},
}

// CanTransitionTo returns true if moving from the current status to next is valid.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	for _, allowed := range ValidEntryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseEntryStatus converts a string into an EntryStatus, rejecting unknown values.
func ParseEntryStatus(s string) (EntryStatus, error) {
	st := EntryStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown entry status %q", s)
	}
	return st, nil
}
