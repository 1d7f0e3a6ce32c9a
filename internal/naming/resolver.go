// Package naming computes deterministic, collision-free output paths for
// recordings and their sidecar files. Paths are resolved before the fetch
// so downloads stream straight to their final location, which is what
// makes re-runs resumable.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"voxpull/internal/services"
)

// OutputAsset is the computed destination for one upload.
type OutputAsset struct {
	// AssetPath is the primary recording destination.
	AssetPath string
	// SidecarPath is the per-upload JSON metadata file next to the asset.
	SidecarPath string
}

// ScriptSidecarPath returns the plain-text script file written alongside an
// asset when the upload carries a script payload.
func ScriptSidecarPath(assetPath string) string {
	stem := strings.TrimSuffix(assetPath, filepath.Ext(assetPath))
	return stem + "_script.txt"
}

// Resolver computes output locations under one release's dataset root.
type Resolver struct {
	root string
}

// NewResolver returns a resolver rooted at outputRoot/releaseName.
func NewResolver(outputRoot, releaseName string) *Resolver {
	return &Resolver{root: filepath.Join(outputRoot, releaseName)}
}

// Root returns the release's dataset root directory.
func (r *Resolver) Root() string {
	return r.root
}

// SpeakerDir returns the directory holding one speaker's files.
func (r *Resolver) SpeakerDir(speakerID string) string {
	return filepath.Join(r.root, speakerID)
}

// Resolve computes the destination for a normal upload: the session
// sequence zero-padded to three digits, combined with the speaker id.
func (r *Resolver) Resolve(speakerID string, sessionSeq int, ext string) OutputAsset {
	ext = normalizeExt(ext)
	stem := fmt.Sprintf("%s-%03d", speakerID, sessionSeq)
	dir := r.SpeakerDir(speakerID)
	return OutputAsset{
		AssetPath:   filepath.Join(dir, stem+"."+ext),
		SidecarPath: filepath.Join(dir, stem+".json"),
	}
}

// ResolveBackground computes the destination for a background-noise probe
// recording. The reserved scheme has two slots, claimed by the caller in
// manifest order; disk state never picks the slot, so re-running an
// unchanged manifest claims the same paths and resumes the files already
// there. A third probe has no defined slot and is a distinguishable error
// rather than a silent overwrite.
func (r *Resolver) ResolveBackground(speakerID string, slot int) (OutputAsset, error) {
	if slot < 1 || slot > 2 {
		return OutputAsset{}, services.Wrap(services.ErrSlotExhausted, "naming", "resolve background slot",
			fmt.Sprintf("speaker %s already holds both background-noise slots", speakerID), nil)
	}
	dir := r.SpeakerDir(speakerID)
	stem := fmt.Sprintf("%s-000-%d", speakerID, slot)
	return OutputAsset{
		AssetPath:   filepath.Join(dir, stem+".wav"),
		SidecarPath: filepath.Join(dir, stem+".json"),
	}, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return "wav"
	}
	return strings.ToLower(ext)
}

// ExtFromFileName extracts the output extension from an upload's original
// file name, defaulting to wav.
func ExtFromFileName(fileName string) string {
	return normalizeExt(filepath.Ext(fileName))
}
