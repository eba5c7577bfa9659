// Package codec converts record collections to and from the three exchange
// formats. Field projection per (kind, format) is an explicit table; entry
// and document exports strip different fields.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/curately/groundtruth-backend/internal/domain"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatJSONL, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// RecordPtr constrains a type parameter to a pointer that satisfies
// domain.Record, so decoders can allocate values and stamp identity.
type RecordPtr[T any] interface {
	*T
	domain.Record
}

type projectionKey struct {
	kind   domain.Kind
	format Format
}

// excludedFields lists what each export strips. Document exports are
// content-only: the approval triple goes too. Entry exports keep approval
// state and drop only the tracking id.
var excludedFields = map[projectionKey][]string{
	{domain.KindEntry, FormatJSON}:     {"id"},
	{domain.KindEntry, FormatJSONL}:    {"id"},
	{domain.KindDocument, FormatJSON}:  {"internal_id", "approved", "date_approved", "approved_by"},
	{domain.KindDocument, FormatJSONL}: {"internal_id", "approved", "date_approved", "approved_by"},
}

type DecodeError struct {
	Format Format
	Line   int
	Reason string
}

func (e *DecodeError) Error() string {
	return e.Reason
}

// project renders one record as a field map with the format's exclusions
// removed. Going through RawMessage keeps numeric fields and passthrough
// content untouched.
func project(rec domain.Record, format Format) (map[string]json.RawMessage, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	for _, f := range excludedFields[projectionKey{rec.Kind(), format}] {
		delete(fields, f)
	}
	return fields, nil
}
