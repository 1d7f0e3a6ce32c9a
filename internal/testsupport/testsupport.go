// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"voxpull/internal/config"
	"voxpull/internal/manifest"
	"voxpull/internal/runlog"
)

// NewConfig returns a default configuration whose paths all live under a
// per-test temp directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "datasets")
	cfg.Paths.LedgerPath = filepath.Join(base, "speakers.csv")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// MustOpenJournal opens a run journal in a temp directory and closes it
// when the test finishes.
func MustOpenJournal(t *testing.T) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// WrapScript frames text the way platform manifests deliver script
// payloads: one framing character on each end around a content marker.
func WrapScript(text string) string {
	return "{content:" + text + "}"
}

// ConsentFields builds a minimal consent payload carrying age and gender.
func ConsentFields(age, gender string) []manifest.ConsentField {
	return []manifest.ConsentField{
		{Name: "Full Name", Value: "Test Contributor"},
		{Name: "Age", Value: age},
		{Name: "Gender", Value: gender},
	}
}

// Upload builds one manifest upload record with sensible defaults.
func Upload(id, userKey, url, scriptText string, status manifest.ApprovalStatus) manifest.UploadRecord {
	return manifest.UploadRecord{
		ID:             id,
		FileName:       id + ".wav",
		URL:            url,
		ApprovalStatus: status,
		UserKey:        userKey,
		UserName:       "user-" + userKey,
		ScriptData:     WrapScript(scriptText),
		ConsentForm:    ConsentFields("34", "Female"),
	}
}
