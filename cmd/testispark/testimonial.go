package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/client"
	"github.com/testispark/testispark/internal/importer"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/ui"
)

var testimonialCmd = &cobra.Command{
	Use:     "testimonial",
	Aliases: []string{"t"},
	Short:   "Moderate, import and export testimonials",
	GroupID: "content",
}

func listRequest(cmd *cobra.Command) *client.ListTestimonialsRequest {
	formID, _ := cmd.Flags().GetString("form")
	status, _ := cmd.Flags().GetString("status")
	search, _ := cmd.Flags().GetString("search")
	return &client.ListTestimonialsRequest{FormID: formID, Status: status, Search: search}
}

var testimonialListCmd = &cobra.Command{
	Use:   "list",
	Short: "List testimonials, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := tsClient.ListTestimonials(context.Background(), listRequest(cmd))
		if err != nil {
			return fmt.Errorf("listing testimonials: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ts)
		}
		return printTestimonialTable(cmd.OutOrStdout(), ts)
	},
}

// patchCommand builds a subcommand that applies the same patch to every id.
func patchCommand(use, short, verb string, patch func() *model.TestimonialPatch) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				t, err := tsClient.UpdateTestimonial(context.Background(), id, patch())
				if err != nil {
					return fmt.Errorf("updating %s: %w", id, err)
				}
				if jsonOutput {
					if err := printJSON(cmd.OutOrStdout(), t); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, t.ID, ui.RenderStatus(string(t.Status)))
			}
			return nil
		},
	}
}

func statusPatch(s model.TestimonialStatus) func() *model.TestimonialPatch {
	return func() *model.TestimonialPatch { return &model.TestimonialPatch{Status: &s} }
}

func featuredPatch(v bool) func() *model.TestimonialPatch {
	return func() *model.TestimonialPatch { return &model.TestimonialPatch{IsFeatured: &v} }
}

var testimonialDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more testimonials",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := tsClient.DeleteTestimonial(context.Background(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	},
}

var testimonialImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import testimonials from a JSON array",
	Long: `Bulk import testimonials from a JSON array of entries, each with
author_name and content and optionally rating, author_company, author_title
and video_url. Imported testimonials are approved immediately. Use -f - to
read from stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		formID, _ := cmd.Flags().GetString("form")
		if f, ok := cmd.InOrStdin().(*os.File); ok && path == "-" && ui.IsTerminal(f) {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderMuted("Reading a JSON array from stdin (Ctrl-D to finish)..."))
		}
		entries, err := readEntries(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		n, err := tsClient.ImportTestimonials(context.Background(), formID, entries)
		if err != nil {
			return fmt.Errorf("importing testimonials: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]int{"imported": n})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d testimonials\n", n)
		return nil
	},
}

func readEntries(path string, stdin io.Reader) ([]importer.Entry, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	var entries []importer.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("parsing entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries to import")
	}
	return entries, nil
}

var testimonialTweetCmd = &cobra.Command{
	Use:   "tweet <url>",
	Short: "Preview a tweet as a testimonial",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw, err := tsClient.PreviewTweet(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("previewing tweet: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), tw)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Author:   %s\n", tw.AuthorName)
		fmt.Fprintf(out, "Content:  %s\n", tw.Content)
		fmt.Fprintf(out, "URL:      %s\n", ui.RenderMuted(tw.URL))
		return nil
	},
}

var testimonialExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export testimonials as CSV (pro plan)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")
		w := cmd.OutOrStdout()
		toFile := path != "" && path != "-"
		if toFile {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close()
			w = f
		}
		if err := tsClient.ExportCSV(context.Background(), listRequest(cmd), w); err != nil {
			return fmt.Errorf("exporting testimonials: %w", err)
		}
		if toFile {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		}
		return nil
	},
}

var testimonialSummarizeCmd = &cobra.Command{
	Use:   "summarize <id>",
	Short: "Generate an AI summary and tags for a testimonial",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := tsClient.Summarize(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("summarizing %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		printTestimonial(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{testimonialListCmd, testimonialExportCmd} {
		c.Flags().String("form", "", "filter by form id")
		c.Flags().StringP("status", "s", "", "filter by status: pending, approved or rejected")
		c.Flags().StringP("search", "q", "", "match author name, email or content")
	}
	testimonialImportCmd.Flags().StringP("file", "f", "", "JSON file of entries (- for stdin)")
	testimonialImportCmd.Flags().String("form", "", "attach imported testimonials to this form")
	testimonialExportCmd.Flags().StringP("output", "o", "", "write CSV to a file instead of stdout")

	testimonialCmd.AddCommand(testimonialListCmd)
	testimonialCmd.AddCommand(patchCommand("approve", "Approve testimonials for display", "Approved",
		statusPatch(model.StatusApproved)))
	testimonialCmd.AddCommand(patchCommand("reject", "Reject testimonials", "Rejected",
		statusPatch(model.StatusRejected)))
	testimonialCmd.AddCommand(patchCommand("feature", "Mark testimonials as featured", "Featured",
		featuredPatch(true)))
	testimonialCmd.AddCommand(patchCommand("unfeature", "Clear the featured flag", "Unfeatured",
		featuredPatch(false)))
	testimonialCmd.AddCommand(testimonialDeleteCmd)
	testimonialCmd.AddCommand(testimonialImportCmd)
	testimonialCmd.AddCommand(testimonialTweetCmd)
	testimonialCmd.AddCommand(testimonialExportCmd)
	testimonialCmd.AddCommand(testimonialSummarizeCmd)
}
