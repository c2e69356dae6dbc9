package feed

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	return path
}

func TestSourceLoadArray(t *testing.T) {
	path := writeFeed(t, "events.json", `[
		{"eventType":"PR_MERGED","bountyId":3,"winnerWallet":"0xabc","prLink":"https://example.com/pr/1"},
		{"eventType":"ISSUE_OPENED","bountyId":4},
		7
	]`)

	events, err := NewSource(path, FormatAuto).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	if events[0].Fields["bountyId"] != json.Number("3") {
		t.Fatalf("bountyId should decode as json.Number: %#v", events[0].Fields["bountyId"])
	}
	if events[1].Index != 1 {
		t.Fatalf("index mismatch: %d", events[1].Index)
	}
	if events[2].Err == nil {
		t.Fatalf("non-object record should carry a decode error")
	}
}

func TestSourceLoadIsRestartable(t *testing.T) {
	path := writeFeed(t, "events.json", `[{"eventType":"PR_MERGED","bountyId":1,"winnerWallet":"0x1"}]`)
	src := NewSource(path, FormatJSON)

	first, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reloads differ: %+v != %+v", first, second)
	}
}

func TestSourceLoadJSONL(t *testing.T) {
	path := writeFeed(t, "events.jsonl", "{\"eventType\":\"PR_MERGED\",\"bountyId\":1,\"winnerWallet\":\"0x1\"}\n\nnot-json\n{\"eventType\":\"ISSUE_OPENED\"}\n")

	events, err := NewSource(path, FormatAuto).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Err == nil {
		t.Fatalf("bad line should become a malformed record")
	}
	if events[2].Index != 2 {
		t.Fatalf("index mismatch: %d", events[2].Index)
	}
}

func TestSourceLoadJSONLKeepsRecordsAfterLongLine(t *testing.T) {
	long := `{"eventType":"PR_MERGED","bountyId":2,"prLink":"` + strings.Repeat("x", 11*1024*1024) + `"}`
	content := strings.Join([]string{
		`{"eventType":"PR_MERGED","bountyId":1}`,
		long,
		`{"eventType":"PR_MERGED","bountyId":3}`,
		`{"eventType":"PR_MERGED","bountyId":4}`,
	}, "\n")
	path := writeFeed(t, "events.jsonl", content)

	events, err := NewSource(path, FormatAuto).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i, want := range []string{"1", "2", "3", "4"} {
		if events[i].Err != nil {
			t.Fatalf("event %d: unexpected error %v", i, events[i].Err)
		}
		v, _ := events[i].Field("bountyId")
		if n, ok := v.(json.Number); !ok || n.String() != want {
			t.Fatalf("event %d: bountyId %v, want %s", i, v, want)
		}
	}
}

func TestSourceLoadMissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.json"), FormatAuto).Load(context.Background())
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("underlying error should be preserved: %v", err)
	}
}

func TestSourceLoadMalformed(t *testing.T) {
	for _, content := range []string{`{"eventType":"PR_MERGED"}`, `[{"eventType":`, ``} {
		path := writeFeed(t, "events.json", content)
		_, err := NewSource(path, FormatJSON).Load(context.Background())
		if !errors.Is(err, ErrFeedMalformed) {
			t.Fatalf("expected ErrFeedMalformed for %q, got %v", content, err)
		}
		var feedErr *Error
		if !errors.As(err, &feedErr) || feedErr.Path != path {
			t.Fatalf("expected *Error with path, got %v", err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("NDJSON"); err != nil || f != FormatJSONL {
		t.Fatalf("ndjson should map to jsonl: %v %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatAuto {
		t.Fatalf("empty should map to auto: %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
