package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/ui"
)

var (
	// Unindented line ending in ":" such as "Content:" or "Flags:".
	reSectionHeader = regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`)

	// Two-space indent, command name, two or more spaces, description.
	reCommandName = regexp.MustCompile(`(?m)^(  )(\S+)(  )`)

	// Flag value types, e.g. "--server string" or "--limit int".
	reFlagValue = regexp.MustCompile(`(--?\S+\s+)(string|int|uint|duration|strings|stringSlice)\b`)

	// Only (default "...") is matched so [flags] and [command] stay plain.
	reFlagDefault = regexp.MustCompile(`\(default "[^"]*"\)`)
)

// colorizedHelpFunc renders cobra's usage text and colors it when stdout
// supports ANSI colors.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	s = reSectionHeader.ReplaceAllStringFunc(s, func(m string) string {
		return ui.RenderAccent(strings.TrimSpace(m))
	})
	s = reCommandName.ReplaceAllStringFunc(s, func(m string) string {
		if p := reCommandName.FindStringSubmatch(m); len(p) == 4 {
			return p[1] + ui.RenderCommand(p[2]) + p[3]
		}
		return m
	})
	s = reFlagValue.ReplaceAllStringFunc(s, func(m string) string {
		if p := reFlagValue.FindStringSubmatch(m); len(p) == 3 {
			return p[1] + ui.RenderMuted(p[2])
		}
		return m
	})
	return reFlagDefault.ReplaceAllStringFunc(s, ui.RenderMuted)
}
