package bash

import (
	"bytes"
	"context"
	"io"
	"os"
	"regexp"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunBashScriptFromReader parses and runs every statement read from r under
// name (used only for parse-error messages), in order, stopping at the
// first error.
func RunBashScriptFromReader(ctx context.Context, runner *interp.Runner, r io.Reader, name string) error {
	file, err := syntax.NewParser().Parse(r, name)
	if err != nil {
		return err
	}
	return runner.Run(ctx, file)
}

// RunBashScriptFromFile opens path and runs it through RunBashScriptFromReader.
func RunBashScriptFromFile(ctx context.Context, runner *interp.Runner, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RunBashScriptFromReader(ctx, runner, f, path)
}

// RunBashCommand runs a single command string against runner, capturing its
// stdout and stderr separately by temporarily redirecting them. It is used
// for short internal bookkeeping commands (setting BISH_LAST_COMMAND_*
// variables, the `cd` wrapper function) rather than user input.
func RunBashCommand(ctx context.Context, runner *interp.Runner, src string) (stdout, stderr string, err error) {
	file, err := syntax.NewParser().Parse(stringsReader(src), "")
	if err != nil {
		return "", "", err
	}

	var outBuf, errBuf bytes.Buffer
	sub := runner.Subshell()
	interp.StdIO(nil, &outBuf, &errBuf)(sub)

	err = sub.Run(ctx, file)
	return outBuf.String(), errBuf.String(), err
}

func stringsReader(s string) io.Reader {
	return bytes.NewReader([]byte(s))
}

// typesetRewrite matches a leading typeset/declare invocation with the
// function-listing flags (-f, -F, -p) so it can be routed to the
// bish_typeset builtin instead of the interpreter's native (and more
// limited) declare support.
var typesetRewrite = regexp.MustCompile(`^\s*(typeset|declare)\s+(-[fFp]\S*)\b`)

// PreprocessTypesetCommands rewrites a `typeset`/`declare` invocation using
// -f/-F/-p into a call to the bish_typeset builtin, leaving everything else
// untouched.
func PreprocessTypesetCommands(input string) string {
	return typesetRewrite.ReplaceAllString(input, "bish_typeset $2")
}

var typesetRunner *interp.Runner

// SetTypesetRunner records the active runner so the bish_typeset handler
// can inspect its function table.
func SetTypesetRunner(runner *interp.Runner) { typesetRunner = runner }

// NewTypesetCommandHandler intercepts bish_typeset and lists, prints, or
// exports function definitions depending on the flag that followed it.
func NewTypesetCommandHandler() func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "bish_typeset" {
				return next(ctx, args)
			}
			if typesetRunner == nil {
				return nil
			}
			hc := interp.HandlerCtx(ctx)
			for name := range typesetRunner.Funcs {
				_, _ = hc.Stdout.Write([]byte(name + "\n"))
			}
			return nil
		}
	}
}

// SetBuiltinHandler is a placeholder hook point for intercepting the `set`
// builtin. It currently delegates to the interpreter's own `set` in every
// case; the runner's POSIX option flags already cover -e/-x, and nothing in
// this shell yet needs -l (CDPATH-style "list mode") handled differently.
func SetBuiltinHandler() func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			return next(ctx, args)
		}
	}
}
