package argexpand

import (
	"context"
	"strings"
)

// Engine bundles the five-stage pipeline with its external collaborators
// (spec.md section 6). Env is required, and so is Subshell for any input
// that contains a command substitution (it is called without a nil check).
// The rest may be left nil, in which case the corresponding syntax they
// drive degrades gracefully (job expansion and history lookups find
// nothing, wildcards pass through unexpanded).
type Engine struct {
	Env         EnvStore
	History     HistoryStore
	Subshell    SubshellExecutor
	Jobs        JobTable
	Background  BackgroundTracker
	ProcessEnum ProcessEnumerator
	Wildcard    WildcardMatcher
	MainThread  MainThreadGate
	UserLookup  UserDirectoryLookup
	Abbrevs     AbbreviationStore
}

const uncleanFirst = "~%"
const unclean = "$*?\\\"'({})"

// isClean reports whether in requires no expansion work: empty, or its
// first character isn't ~ or %, and it contains none of the characters that
// introduce expansion syntax (spec.md section 4.1 fast path).
func isClean(in string) bool {
	if in == "" {
		return true
	}
	if strings.ContainsRune(uncleanFirst, rune(in[0])) {
		return false
	}
	return !strings.ContainsAny(in, unclean)
}

// ExpandString runs the full five-stage pipeline against input.
func (e *Engine) ExpandString(ctx context.Context, input string, flags Flags, errs *ErrorList) (Status, []Completion) {
	if !flags.Has(ForCompletions) && isClean(input) {
		return StatusOK, []Completion{{Value: input}}
	}

	completions := []Completion{{Value: input}}
	total := StatusOK

	runStage := func(fn func(string, *[]Completion) Status) {
		if total == StatusError {
			return
		}
		var next []Completion
		for _, c := range completions {
			var stageOut []Completion
			res := fn(c.Value, &stageOut)
			if !(res == StatusWildcardNoMatch && total == StatusWildcardMatch) {
				total = res
			}
			next = append(next, stageOut...)
			if total == StatusError {
				break
			}
		}
		completions = next
	}

	// Stage 1: command substitution, on raw pre-unescape text.
	runStage(func(s string, o *[]Completion) Status {
		if flags.Has(SkipCmdSubst) {
			if _, _, found := locateCmdsubst([]rune(s)); found != 0 {
				errs.appendCmdsub(0, "Command substitutions not allowed")
				return StatusError
			}
			appendCompletion(o, s)
			return StatusOK
		}
		if !e.expandCmdsubst(ctx, []rune(s), o, errs) {
			return StatusError
		}
		return StatusOK
	})

	// Stage 2: unescape into the marker alphabet, then resolve variables.
	runStage(func(s string, o *[]Completion) Status {
		marked := Unescape(s)
		if flags.Has(SkipVariables) {
			for i, r := range marked {
				if r == VariableExpand {
					marked[i] = '$'
				}
			}
			appendCompletion(o, string(marked))
			return StatusOK
		}
		if !e.expandVariables(marked, o, len(marked), errs) {
			return StatusError
		}
		return StatusOK
	})

	// Stage 3: braces.
	runStage(func(s string, o *[]Completion) Status {
		return e.expandBrackets([]rune(s), flags, o, errs)
	})

	// Stage 4: home directory, then process/job expansion.
	runStage(func(s string, o *[]Completion) Status {
		marked := []rune(s)
		if !flags.Has(SkipHomeDirectories) {
			marked = e.expandHomeDirectory(marked)
		}
		if flags.Has(ForCompletions) {
			if len(marked) > 0 && marked[0] == ProcessExpand {
				e.expandPID(marked, flags, o, nil)
				return StatusOK
			}
			appendCompletion(o, string(marked))
			return StatusOK
		}
		if !e.expandPID(marked, flags, o, errs) {
			return StatusError
		}
		return StatusOK
	})

	// Stage 5: wildcards.
	runStage(func(s string, o *[]Completion) Status {
		return e.expandWildcardsStage(ctx, []rune(s), flags, o, errs)
	})

	if total == StatusError {
		return StatusError, nil
	}

	if !flags.Has(SkipHomeDirectories) {
		e.unexpandTildes(input, completions)
	}
	return total, completions
}

// ExpandOne runs the pipeline and succeeds iff exactly one result was
// produced.
func (e *Engine) ExpandOne(ctx context.Context, input string, flags Flags, errs *ErrorList) (string, bool) {
	if !flags.Has(ForCompletions) && isClean(input) {
		return input, true
	}
	status, completions := e.ExpandString(ctx, input, flags|NoDescriptions, errs)
	if status != StatusError && len(completions) == 1 {
		return completions[0].Value, true
	}
	return input, false
}
