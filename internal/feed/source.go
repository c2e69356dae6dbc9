package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bountyOracle/internal/model"
)

var (
	// ErrFeedUnavailable means the feed file could not be opened or read.
	ErrFeedUnavailable = errors.New("feed unavailable")
	// ErrFeedMalformed means the feed is not a well-formed collection of records.
	ErrFeedMalformed = errors.New("feed malformed")
)

// Error wraps a run-level feed failure with the offending path.
type Error struct {
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Format selects how the feed file is parsed.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name; empty means auto.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatJSONL, "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown feed format: %s", name)
	}
}

// Source reads a static snapshot of bounty events from disk.
type Source struct {
	path   string
	format Format
}

func NewSource(path string, format Format) *Source {
	if format == "" {
		format = FormatAuto
	}
	return &Source{path: path, format: format}
}

// Load reads the whole snapshot. Every call re-reads the file, so an unchanged feed
// always yields the same sequence.
func (s *Source) Load(ctx context.Context) ([]model.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &Error{Path: s.path, Kind: ErrFeedUnavailable, Err: err}
	}

	if s.resolveFormat() == FormatJSONL {
		events, err := parseLines(data)
		if err != nil {
			return nil, &Error{Path: s.path, Kind: ErrFeedMalformed, Err: err}
		}
		return events, nil
	}

	events, err := parseArray(data)
	if err != nil {
		return nil, &Error{Path: s.path, Kind: ErrFeedMalformed, Err: err}
	}
	return events, nil
}

func (s *Source) resolveFormat() Format {
	if s.format != FormatAuto {
		return s.format
	}
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatJSON
	}
}

func parseArray(data []byte) ([]model.RawEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("top level is not a JSON array")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	events := make([]model.RawEvent, 0, len(items))
	for i, item := range items {
		events = append(events, decodeRecord(i, item))
	}
	return events, nil
}

// parseLines decodes one record per non-blank line. Lines have no length cap.
func parseLines(data []byte) ([]model.RawEvent, error) {
	reader := bufio.NewReader(bytes.NewReader(data))

	events := make([]model.RawEvent, 0)
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read line %d: %w", lineNo, err)
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			events = append(events, decodeRecord(len(events), trimmed))
		}
		if err != nil {
			return events, nil
		}
	}
}

func decodeRecord(index int, raw []byte) model.RawEvent {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return model.RawEvent{Index: index, Err: fmt.Errorf("decode record: %w", err)}
	}
	if fields == nil {
		return model.RawEvent{Index: index, Err: fmt.Errorf("record is null")}
	}
	return model.RawEvent{Index: index, Fields: fields}
}
