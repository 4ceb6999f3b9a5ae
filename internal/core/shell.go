package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wispshell/wisp/internal/argexpand"
	"github.com/wispshell/wisp/internal/bash"
	"github.com/wispshell/wisp/internal/environment"
	"github.com/wispshell/wisp/internal/history"
	"go.uber.org/zap"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// shellState records the previous command line and its exit status; the
// exit status drives the prompt marker.
type shellState struct {
	LastCommand  string
	LastExitCode int
}

// RunInteractiveShell reads lines from stdin, expands them through the
// argument expansion engine, and runs the result through runner. It loops
// until EOF or the interpreter reports it was told to exit.
func RunInteractiveShell(
	ctx context.Context,
	runner *interp.Runner,
	historyManager *history.HistoryManager,
	engine *argexpand.Engine,
	logger *zap.Logger,
) error {
	sessionID := uuid.New().String()
	state := &shellState{}

	chanSIGINT := make(chan os.Signal, 1)
	signal.Notify(chanSIGINT, os.Interrupt)
	go func() {
		for range chanSIGINT {
			// ignore SIGINT at the REPL level; running children still see it
		}
	}()

	reader := newLineReader(os.Stdin)

	for {
		fmt.Fprint(os.Stdout, prompt(runner, state))

		line, err := reader.readLine()
		if err != nil {
			if err == errEOF {
				fmt.Fprintln(os.Stdout)
				return nil
			}
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		shouldExit, runErr := executeCommand(ctx, line, historyManager, engine, runner, logger, state, sessionID)
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "wisp: %v\n", runErr)
		}

		environment.SyncVariablesToEnv(runner)

		if shouldExit {
			logger.Debug("exiting...")
			return nil
		}
	}
}

// prompt renders a minimal two-part prompt: the working directory, and a
// marker reflecting the previous command's exit status.
func prompt(runner *interp.Runner, state *shellState) string {
	pwd := environment.GetPwd(runner)
	marker := "$"
	if state.LastExitCode != 0 {
		marker = "!"
	}
	return pwd + " " + marker + " "
}

// executeCommand expands history references and argument-expansion syntax
// in input, then parses and runs the result against runner.
func executeCommand(
	ctx context.Context,
	input string,
	historyManager *history.HistoryManager,
	engine *argexpand.Engine,
	runner *interp.Runner,
	logger *zap.Logger,
	state *shellState,
	sessionID string,
) (bool, error) {
	expandedInput, expanded := expandHistory(input, historyManager)
	if expanded {
		input = expandedInput
		fmt.Fprintln(os.Stderr, input)
	}

	input = bash.PreprocessTypesetCommands(input)
	input = expandWords(ctx, engine, input)

	var prog *syntax.Stmt
	err := syntax.NewParser().Stmts(strings.NewReader(input), func(stmt *syntax.Stmt) bool {
		prog = stmt
		return false
	})
	if prog == nil {
		if err != nil {
			logger.Error("error parsing command", zap.String("command", input), zap.Error(err))
			return false, err
		}
		return false, nil
	}

	historyEntry, _ := historyManager.StartCommand(input, environment.GetPwd(runner), sessionID)

	state.LastCommand = input

	startTime := time.Now()
	err = runner.Run(ctx, prog)
	exited := runner.Exited()
	durationMs := time.Since(startTime).Milliseconds()

	var exitCode int
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			exitCode = int(status)
		} else {
			exitCode = -1
		}
	}
	state.LastExitCode = exitCode

	_, _ = historyManager.FinishCommand(historyEntry, exitCode)
	_, _, _ = bash.RunBashCommand(ctx, runner, fmt.Sprintf("BISH_LAST_COMMAND_DURATION_MS=%d", durationMs))
	_, _, _ = bash.RunBashCommand(ctx, runner, fmt.Sprintf("BISH_LAST_COMMAND_EXIT_CODE=%d", exitCode))

	return exited, nil
}

// expandWords splits input into shell words, runs each unquoted one through
// the argument expansion engine, and rejoins the (possibly now multi-value)
// results into a single command line for the interpreter to parse. Each
// expanded value is quoted with shellQuoteExpanded so it stays one token.
// Quoted words, and words the engine reports an error for or expands to
// nothing, are passed through unchanged.
func expandWords(ctx context.Context, engine *argexpand.Engine, input string) string {
	if engine == nil {
		return input
	}

	words := splitWords(input)
	var rebuilt []string
	var errs argexpand.ErrorList
	for _, w := range words {
		if w.quoted {
			rebuilt = append(rebuilt, w.text)
			continue
		}
		status, completions := engine.ExpandString(ctx, w.text, 0, &errs)
		if status == argexpand.StatusError || len(completions) == 0 {
			rebuilt = append(rebuilt, w.text)
			continue
		}
		for _, c := range completions {
			rebuilt = append(rebuilt, shellQuoteExpanded(c.Value))
		}
	}
	return strings.Join(rebuilt, " ")
}

// shellQuoteExpanded single-quotes value if it now contains characters the
// interpreter's own parser would otherwise treat specially, so an expansion
// result (e.g. a filename with a space) survives the subsequent parse as one
// word. Values produced by the engine are already fully expanded, so no
// further variable or glob interpretation is wanted.
func shellQuoteExpanded(value string) string {
	if value == "" {
		return "''"
	}
	needsQuoting := strings.ContainsAny(value, " \t\n'\"\\$`!*?[](){}|&;<>#~")
	if !needsQuoting {
		return value
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range value {
		if r == '\'' {
			sb.WriteString(`'\''`)
		} else {
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

type word struct {
	text   string
	quoted bool
}

// splitWords splits input on unquoted whitespace, tracking quote state so
// quoted words are passed through unexpanded (the interpreter's own
// parser still honors their quoting).
func splitWords(input string) []word {
	var words []word
	var cur strings.Builder
	inSingle, inDouble := false, false
	quotedWord := false
	hasCur := false

	flush := func() {
		if hasCur {
			words = append(words, word{text: cur.String(), quoted: quotedWord})
			cur.Reset()
			hasCur = false
			quotedWord = false
		}
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && !inSingle:
			cur.WriteRune(r)
			hasCur = true
			if i+1 < len(runes) {
				cur.WriteRune(runes[i+1])
				i++
			}
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			quotedWord = true
			cur.WriteRune(r)
			hasCur = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			quotedWord = true
			cur.WriteRune(r)
			hasCur = true
		case !inSingle && !inDouble && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
			hasCur = true
		}
	}
	flush()
	return words
}

// expandHistory rewrites !! (last command) and !$ (last command's final
// argument) references in input, outside single quotes and unescaped.
func expandHistory(input string, historyManager *history.HistoryManager) (string, bool) {
	if !strings.Contains(input, "!") {
		return input, false
	}

	entries, err := historyManager.GetAllEntries()
	if err != nil || len(entries) == 0 {
		return input, false
	}
	lastCmd := entries[0].Command
	lastArg := lastArgumentOf(lastCmd)

	var sb strings.Builder
	expanded := false
	inSingleQuote := false

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\'' {
			inSingleQuote = !inSingleQuote
			sb.WriteRune(r)
			continue
		}
		if inSingleQuote {
			sb.WriteRune(r)
			continue
		}
		if r == '\\' {
			sb.WriteRune(r)
			if i+1 < len(runes) {
				sb.WriteRune(runes[i+1])
				i++
			}
			continue
		}
		if r == '!' && i+1 < len(runes) && runes[i+1] == '!' {
			sb.WriteString(lastCmd)
			expanded = true
			i++
			continue
		}
		if r == '!' && i+1 < len(runes) && runes[i+1] == '$' {
			sb.WriteString(lastArg)
			expanded = true
			i++
			continue
		}
		sb.WriteRune(r)
	}

	return sb.String(), expanded
}

// lastArgumentOf returns the final whitespace-separated field of cmd, or ""
// if it has none.
func lastArgumentOf(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

var errEOF = fmt.Errorf("EOF")

// lineReader reads newline-terminated input from a file descriptor without
// pulling in a full readline implementation; terminal editing features
// (history search, completion popups) are out of scope for this driver.
type lineReader struct {
	f *os.File
}

func newLineReader(f *os.File) *lineReader { return &lineReader{f: f} }

func (lr *lineReader) readLine() (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := lr.f.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return sb.String(), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", errEOF
		}
	}
}

// isInteractiveTerminal reports whether f is attached to a terminal.
func isInteractiveTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
