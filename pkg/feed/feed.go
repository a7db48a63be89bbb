// Package feed keeps the client-local notification list: a bounded,
// most-recent-first accumulation of real-time events for display. Entries
// are ephemeral; nothing here is persisted or sent back to the backend.
package feed

import (
	"time"

	"github.com/google/uuid"
)

// MaxEntries caps the feed; the oldest entry is evicted past this.
const MaxEntries = 50

// Entry is one observed event rendered for the notification list.
type Entry struct {
	ID        uuid.UUID
	Type      string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// Feed is a most-recent-first notification list. It is not safe for
// concurrent use: all mutation happens on the UI update loop, which is the
// only writer by construction.
type Feed struct {
	entries []Entry
}

// New returns an empty feed.
func New() *Feed {
	return &Feed{}
}

// Add prepends a new unread entry and evicts past MaxEntries.
// It returns the created entry.
func (f *Feed) Add(eventType, message string) Entry {
	e := Entry{
		ID:        uuid.New(),
		Type:      eventType,
		Message:   message,
		CreatedAt: time.Now(),
	}
	f.entries = append([]Entry{e}, f.entries...)
	if len(f.entries) > MaxEntries {
		f.entries = f.entries[:MaxEntries]
	}
	return e
}

// Entries returns the current list, newest first. The returned slice is the
// feed's backing array; callers must not mutate it.
func (f *Feed) Entries() []Entry {
	return f.entries
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	return len(f.entries)
}

// Unread returns the number of unread entries.
func (f *Feed) Unread() int {
	n := 0
	for i := range f.entries {
		if !f.entries[i].Read {
			n++
		}
	}
	return n
}

// MarkAllRead flags every current entry as read.
func (f *Feed) MarkAllRead() {
	for i := range f.entries {
		f.entries[i].Read = true
	}
}

// Clear empties the feed. Idempotent.
func (f *Feed) Clear() {
	f.entries = nil
}
