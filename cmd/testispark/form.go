package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/client"
	"github.com/testispark/testispark/internal/idgen"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/ui"
)

var formCmd = &cobra.Command{
	Use:     "form",
	Short:   "Manage testimonial collection forms",
	GroupID: "content",
}

var formListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your forms with testimonial counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := tsClient.ListForms(context.Background())
		if err != nil {
			return fmt.Errorf("listing forms: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), fs)
		}
		return printFormTable(cmd.OutOrStdout(), fs)
	},
}

var formCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := formRequest(cmd, args[0])
		if err != nil {
			return err
		}
		f, err := tsClient.CreateForm(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating form: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), f)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created form %s\nCollect at %s\n",
			f.ID, ui.RenderAccent(publicFormURL(serverURL, f.Slug)))
		return nil
	},
}

// formRequest builds the create body. A missing --slug is derived from the
// name plus a random suffix.
func formRequest(cmd *cobra.Command, name string) (*client.FormRequest, error) {
	f := cmd.Flags()
	req := &client.FormRequest{Name: strings.TrimSpace(name)}
	req.Slug, _ = f.GetString("slug")
	req.Headline, _ = f.GetString("headline")
	req.Description, _ = f.GetString("description")
	req.BrandColor, _ = f.GetString("brand-color")
	req.ThankYouMessage, _ = f.GetString("thank-you")
	if req.Slug == "" {
		slug, err := idgen.Slug(req.Name)
		if err != nil {
			return nil, err
		}
		req.Slug = slug
	}

	questions, _ := f.GetStringArray("question")
	for _, q := range questions {
		req.Questions = append(req.Questions, model.Question{Text: q, Type: model.QuestionText})
	}
	if rating, _ := f.GetString("rating-question"); rating != "" {
		req.Questions = append(req.Questions, model.Question{Text: rating, Type: model.QuestionRating})
	}
	return req, nil
}

func publicFormURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/collect/" + slug
}

func addFormFlags(c *cobra.Command) {
	c.Flags().String("slug", "", "public URL slug (generated from the name when empty)")
	c.Flags().String("headline", "", "headline shown on the form")
	c.Flags().String("description", "", "text shown under the headline")
	c.Flags().String("brand-color", "", "brand color, e.g. #6366f1")
	c.Flags().String("thank-you", "", "message shown after submitting")
	c.Flags().StringArray("question", nil, "free-text question (repeatable)")
	c.Flags().String("rating-question", "", "add a star rating question with this text")
}

func init() {
	addFormFlags(formCreateCmd)
	formCmd.AddCommand(formListCmd)
	formCmd.AddCommand(formCreateCmd)
}
