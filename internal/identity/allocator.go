// Package identity assigns stable speaker ids to user keys and tracks the
// per-run session sequence used to number output files.
package identity

import (
	"fmt"

	"voxpull/internal/ledger"
)

// Allocator maps volatile per-release user keys to stable speaker ids.
// Ids recorded in the ledger are reused; unseen keys draw the next id from
// a counter seeded with the ledger's maximum existing id plus one.
type Allocator struct {
	reg        *ledger.Ledger
	width      int
	next       int
	assigned   map[string]string
	sessions   map[string]int
	background map[string]int
	order      []string
	pending    map[string]*ledger.Entry
}

// NewAllocator builds an allocator over the loaded ledger. width is the
// release's zero-padding width; ids that outgrow four digits are always
// formatted with five regardless.
func NewAllocator(reg *ledger.Ledger, width int) *Allocator {
	return &Allocator{
		reg:        reg,
		width:      width,
		next:       reg.MaxSpeakerID() + 1,
		assigned:   make(map[string]string),
		sessions:   make(map[string]int),
		background: make(map[string]int),
		pending:    make(map[string]*ledger.Entry),
	}
}

// Allocate returns the speaker id for a user key. Idempotent within a run:
// repeated calls for the same key return the same id without advancing the
// counter. Keys unknown to the ledger get a pending entry with a delivered
// count of zero.
func (a *Allocator) Allocate(userKey string) string {
	if id, ok := a.assigned[userKey]; ok {
		return id
	}
	if entry, ok := a.reg.Get(userKey); ok {
		a.assigned[userKey] = entry.SpeakerID
		return entry.SpeakerID
	}

	id := a.formatID(a.next)
	a.next++
	a.assigned[userKey] = id
	a.order = append(a.order, userKey)
	a.pending[userKey] = &ledger.Entry{UserKey: userKey, SpeakerID: id}
	return id
}

// BumpSession increments and returns the 1-based per-run sequence number
// for a speaker's output files. Independent of the ledger delivered count.
func (a *Allocator) BumpSession(userKey string) int {
	a.sessions[userKey]++
	return a.sessions[userKey]
}

// SessionCount returns the current per-run sequence for a user key.
func (a *Allocator) SessionCount(userKey string) int {
	return a.sessions[userKey]
}

// BumpBackground increments and returns the per-run background-probe
// count for a user key. Probes claim reserved output slots in manifest
// order instead of consuming session sequence numbers, so an unchanged
// manifest claims the same slots on every run.
func (a *Allocator) BumpBackground(userKey string) int {
	a.background[userKey]++
	return a.background[userKey]
}

// AdvanceDelivered bumps the delivered count on the pending ledger entry
// for a user key seen for the first time this run. Existing ledger rows
// are never rewritten, so keys already persisted are left alone.
func (a *Allocator) AdvanceDelivered(userKey string) {
	if entry, ok := a.pending[userKey]; ok {
		entry.DeliveredCount++
	}
}

// NewEntries returns the ledger rows for keys first seen this run, in
// allocation order, ready to be merged and persisted.
func (a *Allocator) NewEntries() []ledger.Entry {
	entries := make([]ledger.Entry, 0, len(a.order))
	for _, key := range a.order {
		entries = append(entries, *a.pending[key])
	}
	return entries
}

func (a *Allocator) formatID(id int) string {
	width := a.width
	if id > 9999 && width < 5 {
		width = 5
	}
	return fmt.Sprintf("%0*d", width, id)
}
