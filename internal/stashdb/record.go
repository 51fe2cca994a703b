package stashdb

import (
	"fmt"

	"github.com/google/uuid"
)

// Record is the stored value. The stash keeps its own copy, so a record
// never changes once stored: replacing one means Erase followed by Put.
type Record struct {
	ID        string
	Title     string
	User      string
	Timestamp int
	Karma     int
}

func (r Record) String() string {
	return fmt.Sprintf("id=%s user=%s timestamp=%d karma=%d title=%q",
		r.ID, r.User, r.Timestamp, r.Karma, r.Title)
}

// Consumer receives scan results, returning false stops the scan.
type Consumer func(Record) bool

// NewID returns a fresh random record id
func NewID() string {
	return uuid.NewString()
}
