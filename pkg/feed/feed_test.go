package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPrependsNewestFirst(t *testing.T) {
	f := New()
	f.Add("new_patient", "first")
	f.Add("new_appointment", "second")

	entries := f.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, "first", entries[1].Message)
}

func TestAddEvictsBeyondCap(t *testing.T) {
	f := New()
	for i := 0; i < MaxEntries+25; i++ {
		f.Add("new_appointment", fmt.Sprintf("msg-%d", i))
	}

	require.Equal(t, MaxEntries, f.Len())
	// Most recent survives at the front; the earliest 25 were evicted.
	assert.Equal(t, fmt.Sprintf("msg-%d", MaxEntries+24), f.Entries()[0].Message)
	assert.Equal(t, "msg-25", f.Entries()[MaxEntries-1].Message)
}

func TestOrderPreservedUnderArbitrarySequences(t *testing.T) {
	f := New()
	for i := 0; i < 200; i++ {
		f.Add("appointment_updated", fmt.Sprintf("e%d", i))
		require.LessOrEqual(t, f.Len(), MaxEntries)
		// Invariant: strictly most-recent-first.
		entries := f.Entries()
		for j := 1; j < len(entries); j++ {
			assert.False(t, entries[j].CreatedAt.After(entries[j-1].CreatedAt))
		}
	}
}

func TestMarkAllReadLeavesNoUnread(t *testing.T) {
	f := New()
	f.Add("new_patient", "a")
	f.Add("new_patient", "b")
	f.Add("new_patient", "c")
	require.Equal(t, 3, f.Unread())

	f.MarkAllRead()
	assert.Equal(t, 0, f.Unread())

	// New arrivals after the fact are unread again.
	f.Add("new_patient", "d")
	assert.Equal(t, 1, f.Unread())
}

func TestClearIsIdempotent(t *testing.T) {
	f := New()
	f.Add("appointment_cancelled", "x")
	f.Clear()
	assert.Equal(t, 0, f.Len())

	f.Clear()
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0, f.Unread())
}

func TestEntriesAssignedDistinctIDs(t *testing.T) {
	f := New()
	a := f.Add("new_patient", "a")
	b := f.Add("new_patient", "b")
	assert.NotEqual(t, a.ID, b.ID)
}
