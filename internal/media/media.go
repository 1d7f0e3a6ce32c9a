// Package media normalizes downloaded payloads in place: some platform
// exports arrive zip-wrapped and some devices upload FLAC where WAV is
// expected. Both cases are detected by content, never by file name.
package media

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	flacMagic = []byte("fLaC")
)

// Normalize unwraps a zip-wrapped payload and transcodes FLAC content to
// WAV, leaving the normalized audio at path. Payloads that are already
// plain audio pass through untouched.
func Normalize(ctx context.Context, ffmpegBinary, path string) error {
	wrapped, err := hasMagic(path, zipMagic)
	if err != nil {
		return err
	}
	if wrapped {
		if err := UnwrapZip(path); err != nil {
			return err
		}
	}

	flac, err := hasMagic(path, flacMagic)
	if err != nil {
		return err
	}
	if flac {
		if err := TranscodeFLAC(ctx, ffmpegBinary, path); err != nil {
			return err
		}
	}
	return nil
}

// UnwrapZip replaces the archive at path with its first regular member.
func UnwrapZip(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip payload: %w", err)
	}

	var member *zip.File
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		member = file
		break
	}
	if member == nil {
		reader.Close()
		return fmt.Errorf("zip payload %s holds no files", filepath.Base(path))
	}

	src, err := member.Open()
	if err != nil {
		reader.Close()
		return fmt.Errorf("open zip member: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		src.Close()
		reader.Close()
		return fmt.Errorf("create temp file: %w", err)
	}
	_, copyErr := io.Copy(tmp, src)
	src.Close()
	reader.Close()
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("extract zip member: %w", copyErr)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace zip payload: %w", err)
	}
	return nil
}

// TranscodeFLAC converts the FLAC file at path to WAV in place. The
// source is parked under a .flac name for the duration so ffmpeg sees the
// extension it expects, and removed once the WAV lands.
func TranscodeFLAC(ctx context.Context, ffmpegBinary, path string) error {
	parked := path + ".flac"
	if err := os.Rename(path, parked); err != nil {
		return fmt.Errorf("park flac payload: %w", err)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", parked,
		path,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		// Put the original back so a re-run can try again.
		os.Rename(parked, path)
		return fmt.Errorf("ffmpeg transcode: %w: %s", err, strings.TrimSpace(string(output)))
	}
	if err := os.Remove(parked); err != nil {
		return fmt.Errorf("remove flac source: %w", err)
	}
	return nil
}

func hasMagic(path string, magic []byte) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open payload: %w", err)
	}
	defer file.Close()

	header := make([]byte, len(magic))
	n, err := io.ReadFull(file, header)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read payload header: %w", err)
	}
	return bytes.Equal(header[:n], magic), nil
}
