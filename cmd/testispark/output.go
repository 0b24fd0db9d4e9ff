package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// truncate shortens s to n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printTestimonialTable(w io.Writer, ts []*model.Testimonial) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tRATING\tAUTHOR\tCONTENT")
	for _, t := range ts {
		author := t.AuthorName
		if t.IsFeatured {
			author += " " + ui.RenderAccent("*")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			ui.RenderStatus(string(t.Status)),
			ui.RenderRating(t.Rating),
			author,
			truncate(t.Content, 50),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d testimonials\n", len(ts))
	return err
}

func printTestimonial(w io.Writer, t *model.Testimonial) {
	fmt.Fprintf(w, "ID:        %s\n", t.ID)
	fmt.Fprintf(w, "Status:    %s\n", ui.RenderStatus(string(t.Status)))
	fmt.Fprintf(w, "Featured:  %t\n", t.IsFeatured)
	fmt.Fprintf(w, "Author:    %s\n", t.AuthorName)
	if t.AuthorTitle != "" || t.AuthorCompany != "" {
		fmt.Fprintf(w, "Role:      %s\n", strings.Trim(t.AuthorTitle+", "+t.AuthorCompany, ", "))
	}
	fmt.Fprintf(w, "Rating:    %s\n", ui.RenderRating(t.Rating))
	fmt.Fprintf(w, "Content:   %s\n", t.Content)
	if t.AISummary != "" {
		fmt.Fprintf(w, "Summary:   %s\n", t.AISummary)
	}
	if len(t.AITags) > 0 {
		fmt.Fprintf(w, "Tags:      %s\n", ui.RenderMuted(strings.Join(t.AITags, ", ")))
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:   %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printWidgetTable(w io.Writer, ws []*model.Widget) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTHEME\tITEMS\tNAME")
	for _, wd := range ws {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			wd.ID, wd.Type, wd.Config.Theme, len(wd.TestimonialIDs), wd.Name)
	}
	return tw.Flush()
}

func printWidget(w io.Writer, wd *model.Widget, embedURL string) {
	c := wd.Config
	fmt.Fprintf(w, "ID:            %s\n", wd.ID)
	fmt.Fprintf(w, "Name:          %s\n", wd.Name)
	fmt.Fprintf(w, "Type:          %s\n", wd.Type)
	fmt.Fprintf(w, "Theme:         %s\n", c.Theme)
	fmt.Fprintf(w, "Layout:        %d columns, %d items max\n", c.Columns, c.MaxItems)
	fmt.Fprintf(w, "Show:          rating=%t avatar=%t date=%t\n", c.ShowRating, c.ShowAvatar, c.ShowDate)
	fmt.Fprintf(w, "Style:         radius=%dpx background=%s\n", c.BorderRadius, c.BackgroundColor)
	fmt.Fprintf(w, "Testimonials:  %s\n", strings.Join(wd.TestimonialIDs, ", "))
	fmt.Fprintf(w, "Embed:         %s\n", ui.RenderAccent(embedURL))
}

func printFormTable(w io.Writer, fs []*model.Form) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tACTIVE\tTESTIMONIALS\tNAME")
	for _, f := range fs {
		active := ui.RenderMuted("no")
		if f.IsActive {
			active = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.Slug, active, f.TestimonialCount, f.Name)
	}
	return tw.Flush()
}
