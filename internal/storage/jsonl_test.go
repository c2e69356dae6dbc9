package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bountyOracle/internal/model"
)

func TestJsonlJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "journal.jsonl")
	journal := NewJsonlJournal(path)

	first := []model.OutcomeRecord{
		model.NewOutcomeRecord("run-a", 0, model.Confirmed(3, "0xabc", 42), "2024-01-01T00:00:00Z"),
	}
	second := []model.OutcomeRecord{
		model.NewOutcomeRecord("run-b", 0, model.AlreadyPaid(3), "2024-01-02T00:00:00Z"),
	}
	if err := journal.PutOutcomeBatch(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := journal.PutOutcomeBatch(second); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := journal.PutOutcomeBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	if err := journal.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// A closed journal reopens in append mode.
	third := []model.OutcomeRecord{
		model.NewOutcomeRecord("run-c", 1, model.Reverted(4, "0xdef", 43), "2024-01-03T00:00:00Z"),
	}
	if err := journal.PutOutcomeBatch(third); err != nil {
		t.Fatalf("third batch: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var got []model.OutcomeRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.OutcomeRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, rec)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	if got[0].RunID != "run-a" || got[1].Outcome != model.OutcomeAlreadyPaid || got[2].Index != 1 {
		t.Fatalf("unexpected records: %+v", got)
	}
}
