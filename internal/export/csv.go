// Package export renders testimonials as a spreadsheet-friendly CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/testispark/testispark/internal/model"
)

// ContentType is the media type of WriteCSV output.
const ContentType = "text/csv; charset=utf-8"

// Header is the first CSV row.
var Header = []string{
	"Author Name",
	"Author Email",
	"Author Title",
	"Author Company",
	"Rating",
	"Content",
	"Status",
	"Featured",
	"AI Summary",
	"AI Tags",
	"Video URL",
	"Created At",
}

// WriteCSV writes the header followed by one row per testimonial.
func WriteCSV(w io.Writer, ts []*model.Testimonial) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range ts {
		if err := cw.Write(Row(t)); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row returns the CSV columns for t in Header order.
func Row(t *model.Testimonial) []string {
	rating := ""
	if t.Rating != nil {
		rating = strconv.Itoa(*t.Rating)
	}
	featured := "No"
	if t.IsFeatured {
		featured = "Yes"
	}
	created := ""
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		t.AuthorName,
		t.AuthorEmail,
		t.AuthorTitle,
		t.AuthorCompany,
		rating,
		t.Content,
		string(t.Status),
		featured,
		t.AISummary,
		strings.Join(t.AITags, "; "),
		t.VideoURL,
		created,
	}
}

// Filename is the attachment name for an export taken at now.
func Filename(now time.Time) string {
	return "testimonials-" + now.UTC().Format("2006-01-02") + ".csv"
}

// ContentDisposition is the Content-Disposition header value for an export
// taken at now.
func ContentDisposition(now time.Time) string {
	return `attachment; filename="` + Filename(now) + `"`
}
