package consent_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voxpull/internal/consent"
	"voxpull/internal/manifest"
	"voxpull/internal/services"
)

func TestResolveFactsByName(t *testing.T) {
	facts, err := consent.ResolveFacts([]manifest.ConsentField{
		{Name: "First Name", Value: "Asha"},
		{Name: "Participant Age", Value: "34"},
		{Name: "Gender", Value: "Female"},
	})
	if err != nil {
		t.Fatalf("ResolveFacts: %v", err)
	}
	if facts.Age != "34" || facts.Gender != "Female" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestResolveFactsLegacyPositions(t *testing.T) {
	facts, err := consent.ResolveFacts([]manifest.ConsentField{
		{Value: "Asha"},
		{Value: "asha@example.com"},
		{Value: "34"},
		{Value: "Female"},
	})
	if err != nil {
		t.Fatalf("ResolveFacts: %v", err)
	}
	if facts.Age != "34" || facts.Gender != "Female" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestResolveFactsMissingIsFatal(t *testing.T) {
	_, err := consent.ResolveFacts([]manifest.ConsentField{
		{Name: "Gender", Value: "Female"},
	})
	if !errors.Is(err, services.ErrMissingFact) {
		t.Fatalf("expected ErrMissingFact, got %v", err)
	}
}

func TestJSONArchiverWritesForm(t *testing.T) {
	dir := t.TempDir()
	fields := []manifest.ConsentField{{Name: "Gender", Value: "Female"}}

	if err := (consent.JSONArchiver{}).Render(fields, "Release-42", "Task-1", dir); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "consent_form.json"))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	var doc struct {
		Release string
		Task    string
		Fields  []manifest.ConsentField
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if doc.Release != "Release-42" || doc.Task != "Task-1" || len(doc.Fields) != 1 {
		t.Fatalf("unexpected form: %+v", doc)
	}
}
