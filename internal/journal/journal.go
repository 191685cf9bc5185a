// Package journal keeps a hash-chained JSONL history of finished copies.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jvs-project/fcp/pkg/errclass"
	"github.com/jvs-project/fcp/pkg/jsonutil"
	"github.com/jvs-project/fcp/pkg/model"
)

// Entry is one finished copy.
type Entry struct {
	Timestamp  time.Time    `json:"timestamp"`
	CopyID     string       `json:"copy_id"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Status     model.Status `json:"status"`
	Bytes      int64        `json:"bytes"`
	Total      int64        `json:"total"`
	Attempts   int          `json:"attempts"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
	PrevHash   string       `json:"prev_hash"`
	RecordHash string       `json:"record_hash"`
}

// NewEntry builds the journal form of res.
func NewEntry(copyID string, res model.Result) Entry {
	e := Entry{
		Timestamp:  time.Now().UTC(),
		CopyID:     copyID,
		From:       res.Spec.From,
		To:         res.Spec.To,
		Status:     res.Status,
		Bytes:      res.BytesCopied,
		Total:      res.TotalBytes,
		Attempts:   res.Attempts,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	return e
}

// Journal appends entries to a JSONL file. Each entry carries the hash of
// the previous one, so edits and deletions show up in Verify.
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal at path. The file is created on first Append.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Append chains e to the last entry and writes it.
func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer unlockFile(file)

	entries, err := readEntries(file)
	if err != nil {
		return err
	}
	e.PrevHash = ""
	if len(entries) > 0 {
		e.PrevHash = entries[len(entries)-1].RecordHash
	}
	if e.RecordHash, err = hashEntry(e); err != nil {
		return err
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	if _, err := file.Seek(0, 2); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// Entries returns the most recent limit entries, oldest first.
// limit <= 0 returns all of them. A missing journal is empty.
func (j *Journal) Entries(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	entries, err := readEntries(file)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Verify checks every hash link and returns the number of entries.
func (j *Journal) Verify() (int, error) {
	entries, err := j.Entries(0)
	if err != nil {
		return 0, err
	}

	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return i, errclass.ErrJournalBroken.WithMessagef("entry %d: chain broken", i+1)
		}
		want, err := hashEntry(e)
		if err != nil {
			return i, err
		}
		if e.RecordHash != want {
			return i, errclass.ErrJournalBroken.WithMessagef("entry %d: hash mismatch", i+1)
		}
		prev = e.RecordHash
	}
	return len(entries), nil
}

func readEntries(file *os.File) ([]Entry, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek to start: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for n := 1; scanner.Scan(); n++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, errclass.ErrJournalBroken.Wrap(err, fmt.Sprintf("line %d", n))
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return entries, nil
}

// hashEntry hashes the canonical form of e without its own RecordHash.
func hashEntry(e Entry) (string, error) {
	e.RecordHash = ""
	data, err := jsonutil.CanonicalMarshal(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
