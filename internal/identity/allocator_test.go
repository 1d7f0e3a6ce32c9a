package identity_test

import (
	"os"
	"path/filepath"
	"testing"

	"voxpull/internal/identity"
	"voxpull/internal/ledger"
)

func emptyLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Load(filepath.Join(t.TempDir(), "speakers.csv"))
	if err != nil {
		t.Fatalf("ledger.Load: %v", err)
	}
	return l
}

func TestAllocateMonotonicAndUnique(t *testing.T) {
	alloc := identity.NewAllocator(emptyLedger(t), 5)

	seen := map[string]bool{}
	prev := ""
	for _, key := range []string{"u1", "u2", "u3", "u4"} {
		id := alloc.Allocate(key)
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		if prev != "" && id <= prev {
			t.Fatalf("ids not strictly increasing: %q after %q", id, prev)
		}
		prev = id
	}
	if first := alloc.Allocate("u1"); first != "00001" {
		t.Fatalf("expected first id 00001, got %q", first)
	}
}

func TestAllocateIdempotentWithinRun(t *testing.T) {
	alloc := identity.NewAllocator(emptyLedger(t), 5)

	first := alloc.Allocate("u1")
	second := alloc.Allocate("u1")
	if first != second {
		t.Fatalf("repeated Allocate returned %q then %q", first, second)
	}
	if next := alloc.Allocate("u2"); next != "00002" {
		t.Fatalf("counter advanced by repeated calls: next id %q", next)
	}
}

func TestAllocateReusesLedgerID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speakers.csv")
	if err := os.WriteFile(path, []byte("veteran,00007,16\n"), 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}
	reg, err := ledger.Load(path)
	if err != nil {
		t.Fatalf("ledger.Load: %v", err)
	}

	alloc := identity.NewAllocator(reg, 5)
	if id := alloc.Allocate("veteran"); id != "00007" {
		t.Fatalf("expected ledger id reuse, got %q", id)
	}
	// Counter seeds past the ledger maximum.
	if id := alloc.Allocate("rookie"); id != "00008" {
		t.Fatalf("expected next id 00008, got %q", id)
	}
	if entries := alloc.NewEntries(); len(entries) != 1 || entries[0].UserKey != "rookie" {
		t.Fatalf("ledger-known key must not produce a new entry: %+v", entries)
	}
}

func TestFormatWidensPastFourDigits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speakers.csv")
	if err := os.WriteFile(path, []byte("u,9999,1\n"), 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}
	reg, err := ledger.Load(path)
	if err != nil {
		t.Fatalf("ledger.Load: %v", err)
	}

	alloc := identity.NewAllocator(reg, 4)
	if id := alloc.Allocate("overflow"); id != "10000" {
		t.Fatalf("expected widened id 10000, got %q", id)
	}
}

func TestSessionCountersIndependentOfDelivered(t *testing.T) {
	alloc := identity.NewAllocator(emptyLedger(t), 5)
	alloc.Allocate("u1")

	if seq := alloc.BumpSession("u1"); seq != 1 {
		t.Fatalf("first bump = %d, want 1", seq)
	}
	if seq := alloc.BumpSession("u1"); seq != 2 {
		t.Fatalf("second bump = %d, want 2", seq)
	}
	if alloc.SessionCount("u2") != 0 {
		t.Fatal("session counts must start at zero per user key")
	}

	alloc.AdvanceDelivered("u1")
	entries := alloc.NewEntries()
	if len(entries) != 1 || entries[0].DeliveredCount != 1 {
		t.Fatalf("unexpected pending entries: %+v", entries)
	}
	if alloc.SessionCount("u1") != 2 {
		t.Fatal("AdvanceDelivered must not touch session counters")
	}
}

func TestBackgroundCountersIndependentOfSessions(t *testing.T) {
	alloc := identity.NewAllocator(emptyLedger(t), 5)
	alloc.Allocate("u1")

	if slot := alloc.BumpBackground("u1"); slot != 1 {
		t.Fatalf("first probe slot = %d, want 1", slot)
	}
	if slot := alloc.BumpBackground("u1"); slot != 2 {
		t.Fatalf("second probe slot = %d, want 2", slot)
	}
	if slot := alloc.BumpBackground("u2"); slot != 1 {
		t.Fatalf("probe slots must be per user key, got %d", slot)
	}
	if alloc.SessionCount("u1") != 0 {
		t.Fatal("background probes must not consume session sequence numbers")
	}
}
