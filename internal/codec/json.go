package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/curately/groundtruth-backend/internal/domain"
)

// EncodeJSON renders records as a pretty-printed array with the kind's
// excluded fields stripped.
func EncodeJSON[T any, PT RecordPtr[T]](records []PT) ([]byte, error) {
	out := make([]map[string]json.RawMessage, 0, len(records))
	for _, r := range records {
		fields, err := project(r, FormatJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, fields)
	}
	return json.MarshalIndent(out, "", "  ")
}

// DecodeJSON accepts any top-level array of objects. Records without a
// tracking id get a fresh one; approved defaults to false. Anything other
// than an array rejects the whole file.
func DecodeJSON[T any, PT RecordPtr[T]](data []byte) ([]PT, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &DecodeError{Format: FormatJSON, Reason: err.Error()}
	}
	if _, ok := probe.([]any); !ok {
		return nil, &DecodeError{Format: FormatJSON, Reason: "invalid JSON format: expected an array"}
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &DecodeError{Format: FormatJSON, Reason: err.Error()}
	}
	out := make([]PT, 0, len(raws))
	for i, raw := range raws {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &DecodeError{Format: FormatJSON, Reason: fmt.Sprintf("invalid record at index %d: %v", i, err)}
		}
		pt := PT(&rec)
		if pt.TrackingID() == "" {
			pt.SetTrackingID(domain.NewTrackingID())
		}
		out = append(out, pt)
	}
	return out, nil
}

// EncodeJSONL renders one projected object per line, no trailing newline.
func EncodeJSONL[T any, PT RecordPtr[T]](records []PT) ([]byte, error) {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		fields, err := project(r, FormatJSONL)
		if err != nil {
			return nil, err
		}
		line, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		lines = append(lines, string(line))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// DecodeJSONL parses each non-blank line as one JSON object. A malformed
// line aborts the whole decode; an input with no parseable lines is its own
// error, distinct from a bad line.
func DecodeJSONL[T any, PT RecordPtr[T]](data []byte) ([]PT, error) {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var out []PT
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &DecodeError{
				Format: FormatJSONL,
				Line:   i + 1,
				Reason: fmt.Sprintf("invalid JSON on line %d", i+1),
			}
		}
		pt := PT(&rec)
		if pt.TrackingID() == "" {
			pt.SetTrackingID(domain.NewTrackingID())
		}
		out = append(out, pt)
	}
	if len(out) == 0 {
		return nil, &DecodeError{Format: FormatJSONL, Reason: "no valid records found"}
	}
	return out, nil
}
