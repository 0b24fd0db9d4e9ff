package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/testispark/testispark/internal/ui"
)

// RemotesConfig is the remotes file: named servers plus the active one.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a TestiSpark server the CLI can talk to.
type Remote struct {
	URL         string `toml:"url"`
	Token       string `toml:"token,omitempty"`
	NATSURL     string `toml:"nats_url,omitempty"`
	Description string `toml:"description,omitempty"`
}

func (c *RemotesConfig) lookup(name string) (Remote, error) {
	r, ok := c.Remotes[name]
	if !ok {
		return Remote{}, fmt.Errorf("remote %q not found", name)
	}
	return r, nil
}

// remotesPath is ~/.local/state/testispark/remotes.toml unless
// TESTISPARK_REMOTES names another file.
func remotesPath() (string, error) {
	if p := os.Getenv("TESTISPARK_REMOTES"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating remotes file: %w", err)
	}
	return filepath.Join(home, ".local", "state", "testispark", "remotes.toml"), nil
}

func loadRemotes() (RemotesConfig, error) {
	cfg := RemotesConfig{Remotes: map[string]Remote{}}
	path, err := remotesPath()
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

// saveRemotes writes the file readable by the owner only, since it holds
// bearer tokens.
func saveRemotes(cfg RemotesConfig) error {
	path, err := remotesPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// updateRemotes loads the file, applies fn and saves the result.
func updateRemotes(fn func(*RemotesConfig) error) error {
	cfg, err := loadRemotes()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return saveRemotes(cfg)
}

// Flag defaults read the active remote once per process.
var activeRemote = sync.OnceValue(func() Remote {
	cfg, err := loadRemotes()
	if err != nil || cfg.Active == "" {
		return Remote{}
	}
	return cfg.Remotes[cfg.Active]
})

func activeRemoteURL() string     { return activeRemote().URL }
func activeRemoteToken() string   { return activeRemote().Token }
func activeRemoteNATSURL() string { return activeRemote().NATSURL }

// normalizeServerURL requires an absolute http(s) URL and drops trailing
// slashes.
func normalizeServerURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: want http(s)://host[:port]", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// maskToken keeps the first eight characters of a secret. fill pads the
// rest with stars so the length stays visible.
func maskToken(tok string, fill bool) string {
	const keep = 8
	switch {
	case len(tok) <= keep:
		return tok
	case fill:
		return tok[:keep] + strings.Repeat("*", len(tok)-keep)
	}
	return tok[:keep] + "..."
}

var remoteCmd = &cobra.Command{
	Use:               "remote",
	Short:             "Manage named server remotes",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		target, err := normalizeServerURL(args[1])
		if err != nil {
			return err
		}
		r := Remote{URL: target}
		r.Token, _ = cmd.Flags().GetString("token")
		r.NATSURL, _ = cmd.Flags().GetString("nats")
		r.Description, _ = cmd.Flags().GetString("description")

		err = updateRemotes(func(cfg *RemotesConfig) error {
			cfg.Remotes[name] = r
			if use, _ := cmd.Flags().GetBool("use"); use {
				cfg.Active = name
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q saved (%s)\n", name, target)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a named remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if _, err := cfg.lookup(name); err != nil {
				return err
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q removed\n", name)
		return nil
	},
}

var remoteRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a remote, keeping it active if it was",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to := args[0], args[1]
		err := updateRemotes(func(cfg *RemotesConfig) error {
			r, err := cfg.lookup(from)
			if err != nil {
				return err
			}
			if _, taken := cfg.Remotes[to]; taken {
				return fmt.Errorf("remote %q already exists", to)
			}
			delete(cfg.Remotes, from)
			cfg.Remotes[to] = r
			if cfg.Active == from {
				cfg.Active = to
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q renamed to %q\n", from, to)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List remotes; the active one is starred",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotes()
		if err != nil {
			return err
		}
		if jsonOutput {
			for name, r := range cfg.Remotes {
				r.Token = maskToken(r.Token, false)
				cfg.Remotes[name] = r
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		}
		return printRemotes(cmd.OutOrStdout(), cfg)
	},
}

func printRemotes(out io.Writer, cfg RemotesConfig) error {
	if len(cfg.Remotes) == 0 {
		fmt.Fprintln(out, "no remotes configured")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tURL\tTOKEN\tDESCRIPTION")
	for _, name := range slices.Sorted(maps.Keys(cfg.Remotes)) {
		r := cfg.Remotes[name]
		marker := "  "
		if name == cfg.Active {
			marker = ui.RenderAccent("*") + " "
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", marker, name, r.URL, maskToken(r.Token, false), r.Description)
	}
	return w.Flush()
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the active remote (no args clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if name != "" {
				if _, err := cfg.lookup(name); err != nil {
					return err
				}
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "active remote cleared")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "active remote set to %q\n", name)
		}
		return nil
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one remote (defaults to the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotes()
		if err != nil {
			return err
		}
		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return errors.New("no active remote; pass a name or run 'testispark remote use <name>'")
		}
		r, err := cfg.lookup(name)
		if err != nil {
			return err
		}

		heading := name
		if name == cfg.Active {
			heading += " " + ui.RenderMuted("(active)")
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "name:\t%s\n", heading)
		for _, row := range [][2]string{
			{"description", r.Description},
			{"url", r.URL},
			{"token", maskToken(r.Token, true)},
			{"nats_url", r.NATSURL},
		} {
			if row[1] != "" {
				fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
			}
		}
		return w.Flush()
	},
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token for the dashboard API")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for 'testispark watch'")
	remoteAddCmd.Flags().String("description", "", "short note shown by 'remote list'")
	remoteAddCmd.Flags().Bool("use", false, "make the remote active")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteRenameCmd, remoteListCmd, remoteUseCmd, remoteShowCmd)
}
