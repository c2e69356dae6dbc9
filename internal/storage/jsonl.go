package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bountyOracle/internal/model"
)

// JsonlJournal appends per-event outcomes to a JSONL file across runs. The file
// is opened on first write and kept open until Close.
type JsonlJournal struct {
	path string

	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

func NewJsonlJournal(path string) *JsonlJournal {
	return &JsonlJournal{path: path}
}

func (j *JsonlJournal) open() error {
	if j.file != nil {
		return nil
	}
	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	j.file = file
	j.buf = bufio.NewWriter(file)
	j.enc = json.NewEncoder(j.buf)
	return nil
}

// PutOutcomeBatch writes one line per record and flushes the batch as a unit.
func (j *JsonlJournal) PutOutcomeBatch(records []model.OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.open(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := j.enc.Encode(rec); err != nil {
			return fmt.Errorf("encode outcome %d of run %s: %w", rec.Index, rec.RunID, err)
		}
	}
	if err := j.buf.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return j.file.Sync()
}

func (j *JsonlJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	flushErr := j.buf.Flush()
	closeErr := j.file.Close()
	j.file, j.buf, j.enc = nil, nil, nil
	if flushErr != nil {
		return fmt.Errorf("flush journal: %w", flushErr)
	}
	return closeErr
}
