package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// colorPreference reads the NO_COLOR and CLICOLOR conventions. ok is false
// when the environment expresses no preference.
func colorPreference() (enabled, ok bool) {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false, true
	case strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1":
		return true, true
	case strings.TrimSpace(os.Getenv("CLICOLOR")) == "0":
		return false, true
	}
	return false, false
}

// ShouldUseColor reports whether stdout gets ANSI colors: the environment
// decides first, then whether stdout is a terminal.
func ShouldUseColor() bool {
	if enabled, ok := colorPreference(); ok {
		return enabled
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Init turns color off for the process when disabled is set or stdout
// should not be colored. JSON output always passes disabled.
func Init(disabled bool) {
	if disabled || !ShouldUseColor() {
		ForceNoColor()
	}
}
