package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ExtraField is one display/audit payload entry.
type ExtraField struct {
	Key   string
	Value any
}

// ExtraData is an ordered key-value payload attached to a notification. The
// engine carries it opaquely for display and audit tooling and never
// interprets its contents.
type ExtraData []ExtraField

// MarshalJSON encodes the payload as a JSON object preserving field order.
func (d ExtraData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal extra key %q: %w", field.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal extra value for %q: %w", field.Key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON returns the payload serialized for persistence. An empty payload
// serializes as an empty object.
func (d ExtraData) JSON() (string, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseExtraData decodes a persisted payload back into ordered fields.
func ParseExtraData(raw string) (ExtraData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	open, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode extra payload: %w", err)
	}
	if delim, ok := open.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("extra payload must be a JSON object")
	}

	var fields ExtraData
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode extra key: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("extra payload key must be a string")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode extra value for %q: %w", key, err)
		}
		fields = append(fields, ExtraField{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode extra payload close: %w", err)
	}
	return fields, nil
}
