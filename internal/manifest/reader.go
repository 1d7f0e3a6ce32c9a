package manifest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"voxpull/internal/logging"
	"voxpull/internal/services"
)

// LoadRelease parses a release manifest JSON file.
func LoadRelease(path string) (*Release, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "open release", path, err)
	}
	defer file.Close()

	var release Release
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&release); err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse release", path, err)
	}
	if strings.TrimSpace(release.Name) == "" {
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse release", "release name is empty", nil)
	}
	return &release, nil
}

// LoadScriptCodes reads the script CSV: one `label, code` row per script,
// first two columns only. The returned map is keyed by the script label
// (the recorded text) and yields its topic code. Short rows are skipped
// with a logged warning; the lookups simply end up with fewer entries.
func LoadScriptCodes(path string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "open script csv", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	codes := make(map[string]string)
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping unreadable script csv row",
				logging.Int("line", line), logging.Error(err))
			continue
		}
		if len(row) < 2 {
			logger.Warn("skipping short script csv row", logging.Int("line", line))
			continue
		}
		label := row[0]
		code := strings.TrimSpace(row[1])
		if code == "" {
			logger.Warn("skipping script csv row with empty code", logging.Int("line", line))
			continue
		}
		codes[label] = code
	}
	return codes, nil
}

const (
	acousticIDHeader  = "Upload Id"
	acousticEnvHeader = "CM_AcousticEnvironment"
)

// LoadAcousticEnvironments reads the acoustic-environment CSV keyed by
// upload id. The file carries a header row; only the Upload Id and
// CM_AcousticEnvironment columns are consumed.
func LoadAcousticEnvironments(path string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "open acoustic csv", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "read acoustic csv header", path, err)
	}
	idCol, envCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case acousticIDHeader:
			idCol = i
		case acousticEnvHeader:
			envCol = i
		}
	}
	if idCol < 0 || envCol < 0 {
		return nil, services.Wrap(services.ErrValidation, "manifest", "read acoustic csv header",
			fmt.Sprintf("missing %q or %q column", acousticIDHeader, acousticEnvHeader), nil)
	}

	envs := make(map[string]string)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping unreadable acoustic csv row",
				logging.Int("line", line), logging.Error(err))
			continue
		}
		if idCol >= len(row) {
			logger.Warn("skipping short acoustic csv row", logging.Int("line", line))
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		env := ""
		if envCol < len(row) {
			env = strings.TrimSpace(row[envCol])
		}
		envs[id] = env
	}
	return envs, nil
}
