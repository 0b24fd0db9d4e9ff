package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// GitDestination commits the backup to a file in an existing local clone
// and pushes it to origin. Runs whose file matches HEAD make no commit.
type GitDestination struct {
	repo   string
	file   string
	branch string
	now    func() time.Time
}

func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch, now: time.Now}
}

func (d *GitDestination) Name() string {
	return "git:" + filepath.Join(d.repo, d.file)
}

func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// A branch that does not exist on origin yet has nothing to pull.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	target := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}

	changed, err := d.staged(ctx)
	if err != nil || !changed {
		return err
	}
	msg := "backup: testispark export " + d.now().UTC().Format(time.RFC3339)
	if _, err := d.git(ctx, "commit", "-m", msg); err != nil {
		return err
	}
	_, err = d.git(ctx, "push", "origin", d.branch)
	return err
}

// staged reports whether the index differs from HEAD.
func (d *GitDestination) staged(ctx context.Context) (bool, error) {
	_, err := d.git(ctx, "diff", "--cached", "--quiet")
	var exit *exec.ExitError
	switch {
	case err == nil:
		return false, nil
	case errors.As(err, &exit) && exit.ExitCode() == 1:
		return true, nil
	}
	return false, err
}

// git runs a git subcommand in the clone. Failures carry git's own output.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", &gitError{args: args, output: strings.TrimSpace(out.String()), err: err}
	}
	return out.String(), nil
}

type gitError struct {
	args   []string
	output string
	err    error
}

func (e *gitError) Error() string {
	msg := "git " + e.args[0] + ": " + e.err.Error()
	if e.output != "" {
		msg += ": " + e.output
	}
	return msg
}

func (e *gitError) Unwrap() error { return e.err }
