package codec

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/curately/groundtruth-backend/internal/domain"
)

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// ExportFilename builds the download name for an export. Entry exports carry
// an `_export` marker; document exports do not.
func ExportFilename(kind domain.Kind, label string, format Format, now time.Time) string {
	slug := slugify(label)
	if slug == "" {
		if kind == domain.KindEntry {
			slug = "ground_truth"
		} else {
			slug = "jsonl_dataset"
		}
	}
	date := now.Format("2006-01-02")
	if kind == domain.KindEntry {
		return fmt.Sprintf("%s_export_%s.%s", slug, date, format)
	}
	return fmt.Sprintf("%s_%s.%s", slug, date, format)
}

func slugify(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, " ", "_")
	s = filenameUnsafe.ReplaceAllString(s, "")
	return strings.Trim(s, "_-")
}
