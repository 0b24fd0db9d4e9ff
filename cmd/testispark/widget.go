package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/client"
	"github.com/testispark/testispark/internal/model"
	"gopkg.in/yaml.v3"
)

var widgetCmd = &cobra.Command{
	Use:     "widget",
	Short:   "Manage embeddable widgets",
	GroupID: "content",
}

var widgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your widgets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := tsClient.ListWidgets(context.Background())
		if err != nil {
			return fmt.Errorf("listing widgets: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ws)
		}
		return printWidgetTable(cmd.OutOrStdout(), ws)
	},
}

var widgetShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a widget and its embed snippet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := tsClient.GetWidget(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting widget %s: %w", args[0], err)
		}
		if snippet, _ := cmd.Flags().GetBool("snippet"); snippet {
			fmt.Fprintln(cmd.OutOrStdout(), embedSnippet(serverURL, w.ID))
			return nil
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), w)
		}
		printWidget(cmd.OutOrStdout(), w, client.EmbedURL(serverURL, w.ID))
		return nil
	},
}

var widgetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a widget from flags or a YAML file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.WidgetRequest{Type: model.WidgetWall}
		if err := applyWidgetFlags(cmd, req); err != nil {
			return err
		}
		if req.Name == "" {
			return fmt.Errorf("--name is required")
		}
		w, err := tsClient.CreateWidget(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating widget: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created widget %s\n%s\n", w.ID, embedSnippet(serverURL, w.ID))
		return nil
	},
}

var widgetUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a widget; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cur, err := tsClient.GetWidget(ctx, args[0])
		if err != nil {
			return fmt.Errorf("getting widget %s: %w", args[0], err)
		}
		req := &client.WidgetRequest{
			Name:           cur.Name,
			Type:           cur.Type,
			Config:         cur.Config,
			TestimonialIDs: cur.TestimonialIDs,
		}
		if err := applyWidgetFlags(cmd, req); err != nil {
			return err
		}
		w, err := tsClient.UpdateWidget(ctx, args[0], req)
		if err != nil {
			return fmt.Errorf("updating widget %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated widget %s\n", w.ID)
		return nil
	},
}

var widgetDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more widgets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := tsClient.DeleteWidget(context.Background(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	},
}

// applyWidgetFlags layers the -f YAML file and then any explicitly set
// flags over req.
func applyWidgetFlags(cmd *cobra.Command, req *client.WidgetRequest) error {
	f := cmd.Flags()
	if path, _ := f.GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := decodeWidgetYAML(data, req); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if f.Changed("name") {
		req.Name, _ = f.GetString("name")
	}
	if f.Changed("type") {
		t, _ := f.GetString("type")
		req.Type = model.WidgetType(t)
	}
	if f.Changed("theme") {
		t, _ := f.GetString("theme")
		req.Config.Theme = model.Theme(t)
	}
	if f.Changed("columns") {
		req.Config.Columns, _ = f.GetInt("columns")
	}
	if f.Changed("max-items") {
		req.Config.MaxItems, _ = f.GetInt("max-items")
	}
	if f.Changed("background") {
		req.Config.BackgroundColor, _ = f.GetString("background")
	}
	if f.Changed("testimonials") {
		req.TestimonialIDs, _ = f.GetStringSlice("testimonials")
	}
	return nil
}

// decodeWidgetYAML merges a YAML widget definition into req. Keys absent
// from the document leave req untouched.
func decodeWidgetYAML(data []byte, req *client.WidgetRequest) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// embedSnippet is the HTML a site owner pastes where the widget should appear.
func embedSnippet(baseURL, widgetID string) string {
	return fmt.Sprintf(`<script src="%s/embed.js" data-widget-id="%s" async></script>`,
		html.EscapeString(strings.TrimRight(baseURL, "/")), html.EscapeString(widgetID))
}

func addWidgetFlags(c *cobra.Command) {
	c.Flags().StringP("file", "f", "", "YAML widget definition")
	c.Flags().String("name", "", "widget name")
	c.Flags().StringP("type", "t", "wall", "layout: wall, carousel or badge")
	c.Flags().String("theme", "light", "light or dark")
	c.Flags().Int("columns", 3, "wall columns (1-4)")
	c.Flags().Int("max-items", 6, "maximum testimonials shown (3-24)")
	c.Flags().String("background", "", "background color, e.g. #ffffff")
	c.Flags().StringSlice("testimonials", nil, "testimonial ids in display order")
}

func init() {
	addWidgetFlags(widgetCreateCmd)
	addWidgetFlags(widgetUpdateCmd)
	widgetShowCmd.Flags().Bool("snippet", false, "print only the embed snippet")

	widgetCmd.AddCommand(widgetListCmd)
	widgetCmd.AddCommand(widgetShowCmd)
	widgetCmd.AddCommand(widgetCreateCmd)
	widgetCmd.AddCommand(widgetUpdateCmd)
	widgetCmd.AddCommand(widgetDeleteCmd)
}
