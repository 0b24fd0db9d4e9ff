package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/testispark/testispark/internal/ui"
)

// healthPollInterval spaces the checks made by health --wait.
const healthPollInterval = 500 * time.Millisecond

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the server is up",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetDuration("wait")
		start := time.Now()
		status, err := waitHealthy(cmd.Context(), wait)
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			return fmt.Errorf("checking health of %s: %w", serverURL, err)
		}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), map[string]any{
				"server": serverURL,
				"status": status,
				"ms":     elapsed.Milliseconds(),
			}); err != nil {
				return err
			}
		} else {
			shown := status
			if status == "ok" {
				shown = ui.RenderAccent(status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", serverURL, shown, ui.RenderMuted(elapsed.String()))
		}
		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}

// waitHealthy asks for the server status until it reports ok or wait has
// passed. A zero wait makes a single attempt.
func waitHealthy(ctx context.Context, wait time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(wait)
	for {
		status, err := tsClient.Health(ctx)
		if err == nil && status == "ok" {
			return status, nil
		}
		if time.Now().Add(healthPollInterval).After(deadline) {
			return status, err
		}
		select {
		case <-ctx.Done():
			return "", errors.Join(ctx.Err(), err)
		case <-time.After(healthPollInterval):
		}
	}
}

var upgradeCmd = &cobra.Command{
	Use:     "upgrade",
	Short:   "Print the checkout link for the pro plan",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := tsClient.CheckoutURL(context.Background())
		if err != nil {
			return fmt.Errorf("getting checkout link: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"url": url})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Upgrade to TestiSpark Pro:")
		fmt.Fprintln(cmd.OutOrStdout(), "  "+ui.RenderAccent(url))
		return nil
	},
}

func init() {
	healthCmd.Flags().Duration("wait", 0, "keep retrying until the server is healthy or this much time has passed")
}
