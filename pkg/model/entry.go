package model

import (
	"sort"
	"time"
)

// Entry is one scheduled unit of work (a fault injection or task execution)
// and its current status.
//
// Entries handed out by the scheduler are value copies; mutating one never
// changes scheduler state.
type Entry struct {
	ID         string      `json:"id"`
	Status     EntryStatus `json:"status"`
	PayloadRef string      `json:"payloadRef"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`

	// Result and Error are set only by a transition into a terminal status.
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Outcome carries the optional result or error recorded on a terminal transition.
type Outcome struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SortEntries orders entries by creation time, breaking ties by id.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
