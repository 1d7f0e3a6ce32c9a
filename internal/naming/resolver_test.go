package naming_test

import (
	"errors"
	"path/filepath"
	"testing"

	"voxpull/internal/naming"
	"voxpull/internal/services"
)

func TestResolveNormalUpload(t *testing.T) {
	r := naming.NewResolver("/data", "Release-42")
	asset := r.Resolve("00001", 7, "wav")

	wantAsset := filepath.Join("/data", "Release-42", "00001", "00001-007.wav")
	wantSidecar := filepath.Join("/data", "Release-42", "00001", "00001-007.json")
	if asset.AssetPath != wantAsset {
		t.Fatalf("AssetPath = %q, want %q", asset.AssetPath, wantAsset)
	}
	if asset.SidecarPath != wantSidecar {
		t.Fatalf("SidecarPath = %q, want %q", asset.SidecarPath, wantSidecar)
	}
}

func TestResolveDefaultsExtension(t *testing.T) {
	r := naming.NewResolver("/data", "R")
	if got := r.Resolve("00002", 1, ""); filepath.Ext(got.AssetPath) != ".wav" {
		t.Fatalf("expected wav default, got %q", got.AssetPath)
	}
	if got := naming.ExtFromFileName("clip.FLAC"); got != "flac" {
		t.Fatalf("ExtFromFileName = %q, want flac", got)
	}
}

func TestScriptSidecarPath(t *testing.T) {
	got := naming.ScriptSidecarPath("/data/R/00001/00001-003.wav")
	if got != "/data/R/00001/00001-003_script.txt" {
		t.Fatalf("ScriptSidecarPath = %q", got)
	}
}

func TestBackgroundSlotting(t *testing.T) {
	r := naming.NewResolver("/data", "R")

	first, err := r.ResolveBackground("00001", 1)
	if err != nil {
		t.Fatalf("first probe: %v", err)
	}
	if filepath.Base(first.AssetPath) != "00001-000-1.wav" {
		t.Fatalf("first probe path = %q", first.AssetPath)
	}

	second, err := r.ResolveBackground("00001", 2)
	if err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if filepath.Base(second.AssetPath) != "00001-000-2.wav" {
		t.Fatalf("second probe path = %q", second.AssetPath)
	}

	// Only two slots exist: a third claim is an error, not an overwrite.
	if _, err := r.ResolveBackground("00001", 3); !errors.Is(err, services.ErrSlotExhausted) {
		t.Fatalf("third probe: expected ErrSlotExhausted, got %v", err)
	}
}

func TestBackgroundSlotsStableAcrossResolvers(t *testing.T) {
	// Two resolvers over the same root stand in for two runs: the same
	// claim yields the same path regardless of what is already on disk.
	first, err := naming.NewResolver("/data", "R").ResolveBackground("00001", 1)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := naming.NewResolver("/data", "R").ResolveBackground("00001", 1)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.AssetPath != second.AssetPath {
		t.Fatalf("slot 1 moved between runs: %q then %q", first.AssetPath, second.AssetPath)
	}
}
