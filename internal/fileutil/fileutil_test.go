package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"voxpull/internal/fileutil"
)

func TestExistsNonEmpty(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.wav")
	if fileutil.ExistsNonEmpty(missing) {
		t.Fatal("missing file reported as present")
	}

	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	if fileutil.ExistsNonEmpty(empty) {
		t.Fatal("zero-byte file reported as present")
	}

	full := filepath.Join(dir, "full.wav")
	if err := os.WriteFile(full, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !fileutil.ExistsNonEmpty(full) {
		t.Fatal("nonzero file not reported as present")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ledger.csv")

	if err := fileutil.WriteFileAtomic(target, []byte("a,b,c\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "a,b,c\n" {
		t.Fatalf("unexpected content %q", data)
	}

	// Overwrite must leave no temp debris behind.
	if err := fileutil.WriteFileAtomic(target, []byte("x,y,z\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only target file, found %d entries", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("copy mismatch: %q err=%v", data, err)
	}
}
