package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voxpull/internal/manifest"
	"voxpull/internal/services"
)

const sampleRelease = `{
  "id": 4821,
  "name": "Release-42",
  "groupingProject": true,
  "objects": [
    {
      "id": "t-1",
      "name": "Conversations Week 3",
      "uploads": [
        {
          "id": 9001,
          "fileName": "rec1.wav",
          "url": "https://cdn.example.com/rec1.wav",
          "checksum": "abc123",
          "approvalStatus": 2,
          "userId": "user-a",
          "userName": "Asha",
          "scriptData": "[content:Hello there]"
        },
        {
          "id": 9002,
          "fileName": "rec2.wav",
          "url": "https://cdn.example.com/rec2.wav",
          "checksum": "def456",
          "approvalStatus": 0,
          "userId": "user-b",
          "userName": "Ravi"
        }
      ]
    }
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadReleaseNormalizesIDs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "release.json", sampleRelease)

	release, err := manifest.LoadRelease(path)
	if err != nil {
		t.Fatalf("LoadRelease: %v", err)
	}
	if release.ID != "4821" {
		t.Fatalf("numeric release id not normalized: %q", release.ID)
	}
	if release.Name != "Release-42" || !release.Grouping {
		t.Fatalf("unexpected release header: %+v", release)
	}
	if len(release.Tasks) != 1 || len(release.Tasks[0].Uploads) != 2 {
		t.Fatalf("unexpected tree shape: %+v", release.Tasks)
	}
	first := release.Tasks[0].Uploads[0]
	if first.ID != "9001" || first.UserKey != "user-a" {
		t.Fatalf("unexpected upload identity: %+v", first)
	}
	if first.ApprovalStatus != manifest.StatusApproved {
		t.Fatalf("unexpected approval status: %v", first.ApprovalStatus)
	}
}

func TestTaskGroupDerivedStatus(t *testing.T) {
	group := manifest.TaskGroup{Uploads: []manifest.UploadRecord{
		{ApprovalStatus: manifest.StatusApproved},
		{ApprovalStatus: manifest.StatusPending},
	}}
	if group.Rejected() {
		t.Fatal("group without rejects reported rejected")
	}
	if !group.Pending() {
		t.Fatal("group with a pending member not reported pending")
	}

	group.Uploads = append(group.Uploads, manifest.UploadRecord{ApprovalStatus: manifest.StatusRejected})
	if !group.Rejected() {
		t.Fatal("group with a rejected member not reported rejected")
	}
	if group.Pending() {
		t.Fatal("rejected group must not also report pending")
	}
	if group.RejectedCount() != 1 {
		t.Fatalf("RejectedCount = %d, want 1", group.RejectedCount())
	}
}

func TestApprovedCountByUser(t *testing.T) {
	release := manifest.Release{Tasks: []manifest.TaskGroup{
		{Uploads: []manifest.UploadRecord{
			{UserKey: "u1", ApprovalStatus: manifest.StatusApproved},
			{UserKey: "u1", ApprovalStatus: manifest.StatusApproved},
			{UserKey: "u1", ApprovalStatus: manifest.StatusRejected},
			{UserKey: "u2", ApprovalStatus: manifest.StatusPending},
		}},
		{Uploads: []manifest.UploadRecord{
			{UserKey: "u1", ApprovalStatus: manifest.StatusApproved},
		}},
	}}
	counts := release.ApprovedCountByUser()
	if counts["u1"] != 3 {
		t.Fatalf("u1 approved count = %d, want 3", counts["u1"])
	}
	if counts["u2"] != 0 {
		t.Fatalf("u2 approved count = %d, want 0", counts["u2"])
	}
}

func TestLoadScriptCodesSkipsShortRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scripts.csv",
		"Hello there,1a\nlonely-row\nHow is the weather today,2a\n")

	codes, err := manifest.LoadScriptCodes(path, nil)
	if err != nil {
		t.Fatalf("LoadScriptCodes: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got %d: %v", len(codes), codes)
	}
	if codes["Hello there"] != "1a" {
		t.Fatalf("unexpected code mapping: %v", codes)
	}
}

func TestLoadAcousticEnvironments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "uploads.csv",
		"Upload Id,Speaker,CM_AcousticEnvironment\n9001,Asha,Quiet\n9002,Ravi,\n,Noone,Noisy\n")

	envs, err := manifest.LoadAcousticEnvironments(path, nil)
	if err != nil {
		t.Fatalf("LoadAcousticEnvironments: %v", err)
	}
	if envs["9001"] != "Quiet" {
		t.Fatalf("unexpected env for 9001: %q", envs["9001"])
	}
	if env, ok := envs["9002"]; !ok || env != "" {
		t.Fatalf("expected blank entry for 9002, got %q ok=%v", env, ok)
	}
	if _, ok := envs[""]; ok {
		t.Fatal("row without upload id must be dropped")
	}
}

func TestLoadAcousticEnvironmentsRejectsMissingColumns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "uploads.csv", "Id,Env\n1,Quiet\n")
	if _, err := manifest.LoadAcousticEnvironments(path, nil); err == nil {
		t.Fatal("expected error for missing headers")
	}
}

func TestExtractScriptText(t *testing.T) {
	text, err := manifest.ExtractScriptText("[content:Hello there]")
	if err != nil {
		t.Fatalf("ExtractScriptText: %v", err)
	}
	if text != "Hello there" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractScriptTextFailsLoudly(t *testing.T) {
	for _, payload := range []string{"", "x", "[no marker here]"} {
		if _, err := manifest.ExtractScriptText(payload); !errors.Is(err, services.ErrMalformedPayload) {
			t.Fatalf("payload %q: expected ErrMalformedPayload, got %v", payload, err)
		}
	}
}

func TestTopicTablesFallback(t *testing.T) {
	tables := manifest.DefaultTopicTables()

	if label, ok := tables.Lookup("1"); !ok || label != "Social Interaction and Communication" {
		t.Fatalf("primary lookup failed: %q %v", label, ok)
	}
	if label, ok := tables.Lookup("1a"); !ok || label != "Greetings and Small Talk" {
		t.Fatalf("fallback lookup failed: %q %v", label, ok)
	}
	if _, ok := tables.Lookup("99z"); ok {
		t.Fatal("unknown code must miss")
	}
}
