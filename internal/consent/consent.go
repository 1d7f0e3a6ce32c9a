// Package consent extracts required facts from an upload's consent-form
// payload and renders the form for archival. Rendering is a pluggable
// collaborator; the shipped implementation archives the raw payload as
// JSON rather than rasterizing it.
package consent

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"voxpull/internal/fileutil"
	"voxpull/internal/manifest"
	"voxpull/internal/services"
)

// Facts are the consent fields the metadata export requires for every
// admitted upload.
type Facts struct {
	Age    string
	Gender string
}

// Positions used by legacy platform exports whose field names are blank.
const (
	legacyAgeIndex    = 2
	legacyGenderIndex = 3
)

// ResolveFacts extracts Age and Gender from the consent payload. Fields
// are matched by name first, falling back to the legacy positional layout.
// A missing fact is fatal: downstream consumers require both fields, so an
// incomplete metadata row must never be emitted.
func ResolveFacts(fields []manifest.ConsentField) (Facts, error) {
	facts := Facts{
		Age:    findField(fields, "age", legacyAgeIndex),
		Gender: findField(fields, "gender", legacyGenderIndex),
	}
	if facts.Age == "" || facts.Gender == "" {
		return Facts{}, services.Wrap(services.ErrMissingFact, "consent", "resolve facts",
			fmt.Sprintf("age=%q gender=%q", facts.Age, facts.Gender), nil)
	}
	return facts, nil
}

func findField(fields []manifest.ConsentField, name string, legacyIndex int) string {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field.Name), name) {
			return strings.TrimSpace(field.Value)
		}
	}
	if legacyIndex < len(fields) && strings.TrimSpace(fields[legacyIndex].Name) == "" {
		return strings.TrimSpace(fields[legacyIndex].Value)
	}
	return ""
}

// Renderer produces a durable artifact from one consent payload.
type Renderer interface {
	Render(fields []manifest.ConsentField, releaseName, taskName, destDir string) error
}

// JSONArchiver writes the consent payload verbatim as an indented JSON
// file in the destination directory. Signature image fields are kept
// as-is; rasterizing to image/PDF is a different Renderer.
type JSONArchiver struct{}

func (JSONArchiver) Render(fields []manifest.ConsentField, releaseName, taskName, destDir string) error {
	doc := struct {
		Release string                  `json:"release"`
		Task    string                  `json:"task"`
		Fields  []manifest.ConsentField `json:"fields"`
	}{Release: releaseName, Task: taskName, Fields: fields}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode consent form: %w", err)
	}
	path := filepath.Join(destDir, "consent_form.json")
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write consent form: %w", err)
	}
	return nil
}
