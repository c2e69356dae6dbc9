package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// FileLedger stores paid bounties in a local JSON file.
type FileLedger struct {
	path string
	mu   sync.Mutex
	data map[uint64]PaidRecord
}

type ledgerFile struct {
	Bounties  map[string]PaidRecord `json:"bounties"`
	UpdatedAt string                `json:"updated_at"`
}

// NewFileLedger loads the ledger at path; a missing file starts empty.
func NewFileLedger(path string) (*FileLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger file path is required")
	}
	l := &FileLedger{path: path, data: make(map[uint64]PaidRecord)}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLedger) load() error {
	stat, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat ledger: %w", err)
	}
	if stat.IsDir() {
		return fmt.Errorf("ledger path is a directory")
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse ledger: %w", err)
	}
	for key, rec := range file.Bounties {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("parse ledger key %q: %w", key, err)
		}
		rec.BountyID = id
		l.data[id] = rec
	}
	return nil
}

func (l *FileLedger) persist() error {
	dir := filepath.Dir(l.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	file := ledgerFile{
		Bounties:  make(map[string]PaidRecord, len(l.data)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for id, rec := range l.data {
		file.Bounties[strconv.FormatUint(id, 10)] = rec
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

func (l *FileLedger) IsPaid(_ context.Context, bountyID uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.data[bountyID]
	return ok, nil
}

func (l *FileLedger) MarkPaid(_ context.Context, record PaidRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev, existed := l.data[record.BountyID]
	l.data[record.BountyID] = record
	if err := l.persist(); err != nil {
		if existed {
			l.data[record.BountyID] = prev
		} else {
			delete(l.data, record.BountyID)
		}
		return err
	}
	return nil
}

func (l *FileLedger) List(_ context.Context) ([]PaidRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedRecords(l.data), nil
}
