package services_test

import (
	"errors"
	"testing"

	"voxpull/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrLookupMiss, "metadata", "resolve topic", "code 99", base)
	if !errors.Is(err, services.ErrLookupMiss) {
		t.Fatalf("expected ErrLookupMiss marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "fetch", "download", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient default, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"transient", services.Wrap(services.ErrTransient, "fetch", "download", "http 403", nil), false},
		{"missing fact", services.Wrap(services.ErrMissingFact, "consent", "resolve age", "", nil), true},
		{"lookup miss", services.Wrap(services.ErrLookupMiss, "metadata", "topic", "", nil), true},
		{"slot exhausted", services.Wrap(services.ErrSlotExhausted, "naming", "probe slot", "", nil), true},
		{"plain error", errors.New("unclassified"), true},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.fatal {
			t.Errorf("%s: IsFatal = %v, want %v", tc.name, got, tc.fatal)
		}
	}
}
