package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/client"
	"github.com/testispark/testispark/internal/embed"
	"github.com/testispark/testispark/internal/ui"
	"golang.org/x/net/html"
)

var renderCmd = &cobra.Command{
	Use:   "render <page.html>",
	Short: "Mount every embedded widget in an HTML page",
	Long: `Run the embed loader over a saved HTML page: every script tag with a
data-widget-id is resolved to its mount point, its payload is fetched from
the script's origin and the rendered widget is written into the document.
Relative script sources resolve against --page-url, then --server. Use - to
read the page from stdin.`,
	GroupID:           "embed",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL, _ := cmd.Flags().GetString("page-url")
		noShadow, _ := cmd.Flags().GetBool("no-shadow")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		outPath, _ := cmd.Flags().GetString("output")

		page, err := readPage(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		doc, err := html.Parse(bytes.NewReader(page))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
		loader := embed.NewLoader(client.NewEmbedClient(serverURL, timeout),
			embed.WithLogger(logger),
			embed.WithShadowDOM(!noShadow),
		)
		outcomes := loader.Init(context.Background(), doc, pageURL)

		if jsonOutput {
			if err := printJSON(cmd.ErrOrStderr(), outcomeReport(outcomes)); err != nil {
				return err
			}
		} else {
			printOutcomes(cmd.ErrOrStderr(), outcomes)
		}

		out := cmd.OutOrStdout()
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer f.Close()
			out = f
		}
		if err := html.Render(out, doc); err != nil {
			return fmt.Errorf("writing document: %w", err)
		}
		return nil
	},
}

func readPage(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

type outcomeJSON struct {
	WidgetID string `json:"widget_id"`
	BaseURL  string `json:"base_url,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

func outcomeReport(outcomes []embed.Outcome) []outcomeJSON {
	report := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		r := outcomeJSON{WidgetID: o.WidgetID, BaseURL: o.BaseURL, Status: string(o.Status)}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		report = append(report, r)
	}
	return report
}

func printOutcomes(w io.Writer, outcomes []embed.Outcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no widget scripts found"))
		return
	}
	for _, o := range outcomes {
		status := ui.RenderMuted(string(o.Status))
		if o.Status == embed.StatusMounted {
			status = ui.RenderAccent(string(o.Status))
		}
		line := fmt.Sprintf("%-18s %s", o.WidgetID, status)
		if o.Err != nil {
			line += ui.RenderMuted(" (" + o.Err.Error() + ")")
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	renderCmd.Flags().String("page-url", "", "URL the page is served from, for resolving relative script sources")
	renderCmd.Flags().Bool("no-shadow", false, "mount into a plain div instead of a declarative shadow root")
	renderCmd.Flags().Duration("timeout", 10*time.Second, "timeout for each widget fetch")
	renderCmd.Flags().StringP("output", "o", "", "write the rendered page to a file instead of stdout")
}
