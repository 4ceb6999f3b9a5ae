// Package subshell implements argexpand.SubshellExecutor by running command
// substitution text through a nested mvdan.cc/sh/v3 interpreter, the same
// runner.Subshell/runner.Run pattern internal/bash/run.go uses for
// RunBashCommand.
package subshell

import (
	"bytes"
	"context"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/wispshell/wisp/internal/argexpand"
)

// Executor runs command substitutions against a parent runner's subshell,
// so substitutions see the parent's variables, working directory, and
// functions without being able to mutate them.
type Executor struct {
	Runner *interp.Runner
	// MaxBytes caps the amount of output a single substitution may produce
	// before it is discarded as "read too much", mirroring a real shell's
	// pipe-buffer backstop against runaway substitutions.
	MaxBytes int
}

var _ argexpand.SubshellExecutor = (*Executor)(nil)

// New wraps runner as a SubshellExecutor with a 1MiB output cap.
func New(runner *interp.Runner) *Executor {
	return &Executor{Runner: runner, MaxBytes: 1 << 20}
}

// ExecSubshell runs cmd in a subshell of e.Runner and returns its stdout
// split into lines with trailing newlines stripped, matching how a real
// shell collects $(...) output. applyExitStatus has no effect: a non-zero
// exit status of cmd is not reported as an error and is not propagated to
// the parent runner's $?.
func (e *Executor) ExecSubshell(ctx context.Context, cmd string, applyExitStatus bool) ([]string, bool, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil, false, err
	}

	sub := e.Runner.Subshell()
	var out bytes.Buffer
	interp.StdIO(nil, &out, nil)(sub)

	runErr := sub.Run(ctx, file)
	if runErr != nil {
		if _, ok := interp.IsExitStatus(runErr); !ok {
			return nil, false, runErr
		}
	}
	if applyExitStatus {
		// interp.Runner does not expose a way to set the parent's exit
		// status from here, and an exit-status error is not returned
		// either, so the status is dropped.
		_ = runErr
	}

	limit := e.MaxBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	if out.Len() > limit {
		return nil, true, nil
	}

	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil, false, nil
	}
	return strings.Split(text, "\n"), false, nil
}
