package model

import "encoding/json"

// RawEvent is a single feed record as received, before classification.
type RawEvent struct {
	Index  int
	Fields map[string]any
	// Err is set when the record itself could not be decoded into a JSON object.
	Err error
}

// Field returns the raw value stored under key.
func (e RawEvent) Field(key string) (any, bool) {
	if e.Fields == nil {
		return nil, false
	}
	val, ok := e.Fields[key]
	return val, ok
}

// StringField returns the value under key when it is a JSON string.
func (e RawEvent) StringField(key string) (string, bool) {
	val, ok := e.Field(key)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// MarshalJSON encodes the raw fields as received.
func (e RawEvent) MarshalJSON() ([]byte, error) {
	if e.Fields == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.Fields)
}
