package codec

import (
	"strconv"
	"strings"

	"github.com/curately/groundtruth-backend/internal/domain"
)

var csvColumns = []string{
	"question",
	"ground_truth_chunk_id",
	"ground_truth_text",
	"approved",
	"date_approved",
	"approved_by",
}

// EncodeCSV renders entries in the fixed column order. Documents are not
// CSV-exportable. An empty collection yields the empty string, no header
// row.
func EncodeCSV(entries []*domain.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, strings.Join(csvColumns, ","))
	for _, e := range entries {
		values := []string{
			e.Question,
			e.GroundTruthChunkID,
			e.GroundTruthText,
			strconv.FormatBool(e.Approved),
			e.DateApproved,
			e.ApprovedBy,
		}
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = escapeCSV(v)
		}
		rows = append(rows, strings.Join(escaped, ","))
	}
	return strings.Join(rows, "\n")
}

// escapeCSV quotes a field iff it contains a comma, a double quote, or a
// newline; internal quotes are doubled. Everything else passes through as-is.
func escapeCSV(value string) string {
	if strings.ContainsAny(value, ",\"\n") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}
