package ui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShouldUseColor_Env(t *testing.T) {
	for _, tc := range []struct {
		name                     string
		noColor, force, clicolor string
		want                     bool
	}{
		{"NoColorWins", "1", "1", "", false},
		{"Forced", "", "1", "", true},
		{"ClicolorOff", "", "", "0", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tc.noColor)
			t.Setenv("CLICOLOR_FORCE", tc.force)
			t.Setenv("CLICOLOR", tc.clicolor)
			if got := ShouldUseColor(); got != tc.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestColorPreference_Unset(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "")
	t.Setenv("CLICOLOR", "1")
	if _, ok := colorPreference(); ok {
		t.Error("CLICOLOR=1 alone should leave the decision to the terminal check")
	}
}

func TestIsTerminal_File(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) || IsTerminal(nil) {
		t.Error("regular files and nil are not terminals")
	}
}
