package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/client"
	"github.com/testispark/testispark/internal/ui"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool

	tsClient client.Client
)

func defaultServer() string {
	if s := os.Getenv("TESTISPARK_SERVER"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("TESTISPARK_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

// skipClient is used as PersistentPreRunE by commands that never talk to the
// dashboard API.
func skipClient(cmd *cobra.Command, args []string) error {
	ui.Init(noColor || jsonOutput)
	return nil
}

var rootCmd = &cobra.Command{
	Use:          "testispark <command>",
	Short:        "Collect, moderate and embed customer testimonials",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Init(noColor || jsonOutput)
		tsClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tsClient != nil {
			tsClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "TestiSpark server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for the dashboard API")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "content", Title: "Content:"},
		&cobra.Group{ID: "embed", Title: "Embedding:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Content
	rootCmd.AddCommand(testimonialCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(widgetCmd)

	// Embedding
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
