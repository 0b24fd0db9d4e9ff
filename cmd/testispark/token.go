package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign a dashboard API token with TESTISPARK_JWT_SECRET",
	Long: `Sign a bearer token for the dashboard API. The server verifies
tokens with TESTISPARK_JWT_SECRET, so this must run with the same secret.
Store the result with 'testispark remote add --token'.`,
	GroupID:           "system",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("TESTISPARK_JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("TESTISPARK_JWT_SECRET is not set")
		}
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			return fmt.Errorf("--ttl must be positive")
		}
		tok, err := server.SignToken(secret, args[0], email, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("email", "", "email claim to embed")
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "token lifetime")
}
