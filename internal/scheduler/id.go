package scheduler

import "github.com/google/uuid"

// EntryIDPrefix marks Prodigy entry ids.
const EntryIDPrefix = "flt_"

// NewEntryID returns a time-ordered UUIDv7 id. Uniqueness holds by
// construction, so Create never needs to detect and retry collisions.
func NewEntryID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return EntryIDPrefix + u.String(), nil
}
