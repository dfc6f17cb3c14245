package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// legacyTimeLayouts are the locale formats older clients stored timestamps in.
// They carry no zone and are read as UTC.
var legacyTimeLayouts = []string{
	"2.1.2006, 15:04:05",
	"2.1.2006 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// fieldKinds names the scalar JSON keys of a stored record by the Go type
// they decode into. coerce rewrites values that would not decode.
type fieldKinds struct {
	strings []string
	times   []string
	floats  []string
	ints    []string
}

// coerce parses an object and repairs its scalar fields:
//   - strings accept numbers and booleans as their literal text
//   - times accept RFC 3339, legacy locale formats and epoch milliseconds,
//     anything else is dropped
//   - numbers accept numeric strings, booleans count as 1 or 0, anything
//     else becomes 0
func (k fieldKinds) coerce(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, key := range k.strings {
		if v, ok := raw[key]; ok {
			setOrDrop(raw, key, coerceString(v))
		}
	}
	for _, key := range k.times {
		if v, ok := raw[key]; ok {
			setOrDrop(raw, key, coerceTime(v))
		}
	}
	for _, key := range k.floats {
		if v, ok := raw[key]; ok {
			raw[key] = coerceNumber(v, false)
		}
	}
	for _, key := range k.ints {
		if v, ok := raw[key]; ok {
			raw[key] = coerceNumber(v, true)
		}
	}
	return raw, nil
}

// decodeLenient coerces data with kinds and decodes the result into out,
// which must not itself implement json.Unmarshaler.
func decodeLenient(data []byte, kinds fieldKinds, out interface{}) error {
	raw, err := kinds.coerce(data)
	if err != nil {
		return err
	}
	cleaned, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(cleaned, out)
}

func setOrDrop(raw map[string]json.RawMessage, key string, v json.RawMessage) {
	if v == nil {
		delete(raw, key)
		return
	}
	raw[key] = v
}

func jsonKind(v json.RawMessage) byte {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return 0
	}
	switch c := trimmed[0]; c {
	case '"', '{', '[', 'n', 't', 'f':
		return c
	default:
		return '0'
	}
}

func coerceString(v json.RawMessage) json.RawMessage {
	switch jsonKind(v) {
	case '"', 'n':
		return v
	case '0', 't', 'f':
		return mustMarshal(string(bytes.TrimSpace(v)))
	default:
		return nil
	}
}

func coerceTime(v json.RawMessage) json.RawMessage {
	switch jsonKind(v) {
	case 'n':
		return v
	case '0':
		ms, err := strconv.ParseFloat(string(bytes.TrimSpace(v)), 64)
		if err != nil {
			return nil
		}
		return mustMarshal(time.UnixMilli(int64(ms)).UTC())
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil
		}
		if t, ok := ParseTimestamp(s); ok {
			return mustMarshal(t)
		}
		return nil
	default:
		return nil
	}
}

// ParseTimestamp reads an RFC 3339 or legacy locale timestamp. Legacy values
// without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceNumber(v json.RawMessage, integer bool) json.RawMessage {
	var f float64
	switch jsonKind(v) {
	case 'n':
		return v
	case '0':
		if !integer {
			return v
		}
		parsed, err := strconv.ParseFloat(string(bytes.TrimSpace(v)), 64)
		if err != nil {
			return mustMarshal(0)
		}
		f = parsed
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return mustMarshal(0)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return mustMarshal(0)
		}
		f = parsed
	case 't':
		f = 1
	default:
		f = 0
	}
	if integer {
		return mustMarshal(int64(math.Trunc(f)))
	}
	return mustMarshal(f)
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
