package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"voxpull/internal/fileutil"
	"voxpull/internal/services"
)

// Entry is one persisted ledger row.
type Entry struct {
	UserKey        string
	SpeakerID      string
	DeliveredCount int
}

// Ledger is the in-memory view of the speaker registry file. It is owned
// by a single run; a concurrent run against the same file is refused via
// the lock file next to the ledger.
type Ledger struct {
	path    string
	entries []Entry
	index   map[string]int
	lock    *flock.Flock
}

// Load reads the ledger file at path. A missing file yields an empty
// ledger; the first run against a fresh registry is not an error.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path:  path,
		index: make(map[string]int),
		lock:  flock.New(path + ".lock"),
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("parse ledger %s: row %d has %d columns, want 3", path, i+1, len(row))
		}
		count, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("parse ledger %s: row %d delivered count: %w", path, i+1, err)
		}
		entry := Entry{
			UserKey:        strings.TrimSpace(row[0]),
			SpeakerID:      strings.TrimSpace(row[1]),
			DeliveredCount: count,
		}
		if _, dup := l.index[entry.UserKey]; dup {
			return nil, fmt.Errorf("parse ledger %s: duplicate user key %q", path, entry.UserKey)
		}
		l.index[entry.UserKey] = len(l.entries)
		l.entries = append(l.entries, entry)
	}
	return l, nil
}

// Acquire takes the run lock next to the ledger file. It fails fast when
// another run holds it; re-entrant runs on one ledger are unsupported.
func (l *Ledger) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "ledger", "acquire lock",
			"another voxpull run is already using this ledger", nil)
	}
	return nil
}

// Release drops the run lock.
func (l *Ledger) Release() error {
	return l.lock.Unlock()
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// Get returns the entry for a user key.
func (l *Ledger) Get(userKey string) (Entry, bool) {
	idx, ok := l.index[userKey]
	if !ok {
		return Entry{}, false
	}
	return l.entries[idx], true
}

// Len returns the number of persisted rows.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the rows in stable order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// MaxSpeakerID returns the highest numeric speaker id in the ledger, or 0
// when the ledger is empty. Seeds the allocator's counter.
func (l *Ledger) MaxSpeakerID() int {
	max := 0
	for _, entry := range l.entries {
		n, err := strconv.Atoi(entry.SpeakerID)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

// Merge appends new entries to the ledger. The conflict rule is explicit
// and additive: a key already present keeps its existing row untouched.
func (l *Ledger) Merge(newEntries []Entry) {
	for _, entry := range newEntries {
		if _, exists := l.index[entry.UserKey]; exists {
			continue
		}
		l.index[entry.UserKey] = len(l.entries)
		l.entries = append(l.entries, entry)
	}
}

// Save rewrites the backing file atomically: existing rows first in their
// original order, newly merged rows appended at the end. Called exactly
// once at the end of a successful run; a crash before Save leaves the
// prior ledger intact.
func (l *Ledger) Save() error {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	for _, entry := range l.entries {
		row := []string{entry.UserKey, entry.SpeakerID, strconv.Itoa(entry.DeliveredCount)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("encode ledger row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := fileutil.WriteFileAtomic(l.path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
