package metadata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"voxpull/internal/fileutil"
	"voxpull/internal/manifest"
	"voxpull/internal/services"
)

// Headers is the fixed column order of the per-speaker export.
var Headers = []string{
	"ID",
	"Mobile Number",
	"Language",
	"Native Language",
	"Accent",
	"Age",
	"Gender",
	"Recording Device",
	"Acoustic Environment 1",
	"Acoustic Environment 2",
}

// SpeakerRow accumulates one speaker's summary fields across the run.
// Age, Gender, and Recording Device are last-write-wins; the two acoustic
// environment slots fill in observation order.
type SpeakerRow struct {
	ID              string
	MobileNumber    string
	Language        string
	NativeLanguage  string
	Accent          string
	Age             string
	Gender          string
	RecordingDevice string
	AcousticEnv1    string
	AcousticEnv2    string
}

func (r *SpeakerRow) columns() []string {
	return []string{
		r.ID, r.MobileNumber, r.Language, r.NativeLanguage, r.Accent,
		r.Age, r.Gender, r.RecordingDevice, r.AcousticEnv1, r.AcousticEnv2,
	}
}

// Sidecar is the per-upload JSON metadata file.
type Sidecar struct {
	Text                string `json:"text"`
	Topic               string `json:"topic"`
	AcousticEnvironment string `json:"acoustic_environment"`
	RecordingDevice     string `json:"recording_device"`
	SpeakerName         string `json:"speaker_name"`
	Gender              string `json:"gender"`
	Language            string `json:"language"`
	NativeLanguage      string `json:"native_language"`
	Accent              string `json:"accent"`
}

// Observation carries the resolved facts for one admitted upload.
type Observation struct {
	SpeakerID           string
	Text                string
	AcousticEnvironment string
	Age                 string
	Gender              string
	// Background marks a background-noise probe: its sidecar keeps the
	// environment and device but blanks the speech-related fields.
	Background bool
}

// Aggregator owns the per-speaker rows and the topic resolution tables.
// Lookup tables are immutable configuration passed in at construction,
// never ambient globals.
type Aggregator struct {
	scriptCodes map[string]string
	topics      manifest.TopicTables
	language    string
	device      string
	mobile      string

	rows  map[string]*SpeakerRow
	order []string
}

// NewAggregator builds an aggregator for one run. languageCode is the
// CLI's target language; it is resolved to an English display name when it
// parses as a BCP 47 tag and title-cased as-is otherwise.
func NewAggregator(scriptCodes map[string]string, topics manifest.TopicTables, languageCode, device, mobilePlaceholder string) *Aggregator {
	return &Aggregator{
		scriptCodes: scriptCodes,
		topics:      topics,
		language:    languageLabel(languageCode),
		device:      device,
		mobile:      mobilePlaceholder,
		rows:        make(map[string]*SpeakerRow),
	}
}

// Language returns the resolved language label used on every row.
func (a *Aggregator) Language() string {
	return a.language
}

// RecordUpload folds one admitted upload into its speaker row and returns
// the sidecar to write next to the asset. Topic resolution misses are
// fatal: a row with a silently omitted classification must never ship.
func (a *Aggregator) RecordUpload(obs Observation) (Sidecar, error) {
	sidecar := Sidecar{
		AcousticEnvironment: obs.AcousticEnvironment,
		RecordingDevice:     a.device,
	}
	if !obs.Background {
		topic, err := a.resolveTopic(obs.Text)
		if err != nil {
			return Sidecar{}, err
		}
		sidecar.Text = obs.Text
		sidecar.Topic = topic
		sidecar.SpeakerName = obs.SpeakerID
		sidecar.Gender = obs.Gender
		sidecar.Language = a.language
		sidecar.NativeLanguage = a.language
		sidecar.Accent = a.language
	}

	a.FoldRow(obs)
	return sidecar, nil
}

// FoldRow updates the speaker row without producing a sidecar. Uploads
// that carry no script payload ship without sidecar files, but their
// facts still belong on the speaker's summary row.
func (a *Aggregator) FoldRow(obs Observation) {
	row := a.row(obs.SpeakerID)
	row.Age = obs.Age
	row.Gender = obs.Gender
	row.RecordingDevice = a.device
	if row.AcousticEnv1 == "" {
		row.AcousticEnv1 = obs.AcousticEnvironment
	} else {
		row.AcousticEnv2 = obs.AcousticEnvironment
	}
}

func (a *Aggregator) resolveTopic(text string) (string, error) {
	code, ok := a.scriptCodes[text]
	if !ok {
		return "", services.Wrap(services.ErrLookupMiss, "metadata", "resolve script code",
			fmt.Sprintf("script text %q has no entry in the script table", truncate(text, 60)), nil)
	}
	label, ok := a.topics.Lookup(code)
	if !ok {
		return "", services.Wrap(services.ErrLookupMiss, "metadata", "resolve topic",
			fmt.Sprintf("topic code %q unknown to every topic table", code), nil)
	}
	return label, nil
}

func (a *Aggregator) row(speakerID string) *SpeakerRow {
	if row, ok := a.rows[speakerID]; ok {
		return row
	}
	row := &SpeakerRow{
		ID:             speakerID,
		MobileNumber:   a.mobile,
		Language:       a.language,
		NativeLanguage: a.language,
		Accent:         a.language,
	}
	a.rows[speakerID] = row
	a.order = append(a.order, speakerID)
	return row
}

// Rows returns the accumulated rows in first-seen order.
func (a *Aggregator) Rows() []SpeakerRow {
	out := make([]SpeakerRow, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.rows[id])
	}
	return out
}

// WriteSidecar serializes the sidecar as indented JSON at path.
func WriteSidecar(path string, sidecar Sidecar) error {
	data, err := json.MarshalIndent(sidecar, "", "    ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// ExportFileName returns the dated export name, e.g. Metadata_05_Mar_2026.csv.
func ExportFileName(now time.Time) string {
	return "Metadata_" + now.Format("02_Jan_2006") + ".csv"
}

// Finalize writes the per-speaker export under dir using the fixed header
// order. An empty release writes nothing and returns an empty path; the
// caller reports that, it is not an error.
func (a *Aggregator) Finalize(dir string, now time.Time) (string, error) {
	if len(a.order) == 0 {
		return "", nil
	}

	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	if err := writer.Write(Headers); err != nil {
		return "", fmt.Errorf("encode export header: %w", err)
	}
	for _, row := range a.Rows() {
		if err := writer.Write(row.columns()); err != nil {
			return "", fmt.Errorf("encode export row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	path := filepath.Join(dir, ExportFileName(now))
	if err := fileutil.WriteFileAtomic(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func languageLabel(code string) string {
	trimmed := strings.TrimSpace(code)
	if tag, err := language.Parse(trimmed); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return cases.Title(language.English).String(trimmed)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
