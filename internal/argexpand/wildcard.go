package argexpand

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// expandWildcardsStage is stage 5 (spec.md section 4.7). input is
// marker-alphabet text.
func (e *Engine) expandWildcardsStage(ctx context.Context, input []rune, flags Flags, out *[]Completion, errs *ErrorList) Status {
	pathToExpand := removeInternalSeparators(input, flags.Has(SkipWildcards))
	hasWildcard := containsMarker(pathToExpand, AnyChar, AnyString, AnyStringRecursive)

	if !((flags.Has(ForCompletions) && !flags.Has(SkipWildcards)) || hasWildcard) {
		if !flags.Has(ForCompletions) {
			appendCompletion(out, string(pathToExpand))
		}
		return StatusOK
	}

	if e.Wildcard == nil {
		if !flags.Has(ForCompletions) {
			appendCompletion(out, string(pathToExpand))
		}
		return StatusOK
	}

	workingDirs := e.wildcardWorkingDirs(string(pathToExpand), flags)

	result := StatusWildcardNoMatch
	var expanded []Completion
	for _, wd := range workingDirs {
		n := e.Wildcard.Expand(ctx, string(pathToExpand), wd, flags, &expanded)
		switch {
		case n > 0:
			result = StatusWildcardMatch
		case n < 0:
			return StatusError
		}
		if ctx.Err() != nil {
			return StatusError
		}
	}

	sortCompletionsNatural(expanded)
	*out = append(*out, expanded...)
	return result
}

func (e *Engine) wildcardWorkingDirs(pathToExpand string, flags Flags) []string {
	pwd := e.Env.PwdSlash()
	forCD := flags.Has(SpecialForCD)
	forCommand := flags.Has(SpecialForCommand)
	if !forCD && !forCommand {
		return []string{pwd}
	}

	if strings.HasPrefix(pathToExpand, "/") ||
		strings.HasPrefix(pathToExpand, "./") ||
		strings.HasPrefix(pathToExpand, "../") ||
		(forCommand && strings.ContainsRune(pathToExpand, '/')) {
		return []string{pwd}
	}

	name := "PATH"
	defaultVal := ""
	if forCD {
		name = "CDPATH"
		defaultVal = "."
	}
	values, ok := e.Env.Get(name)
	if !ok || len(values) == 0 {
		if defaultVal == "" {
			return nil
		}
		values = []string{defaultVal}
	}

	dirs := make([]string, 0, len(values))
	for _, p := range values {
		if p == "" {
			p = "."
		}
		dirs = append(dirs, applyWorkingDirectory(p, pwd))
	}
	return dirs
}

func applyWorkingDirectory(path, pwd string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(pwd, path)
}

func sortCompletionsNatural(c []Completion) {
	sort.SliceStable(c, func(i, j int) bool {
		return naturalLess(c[i].Value, c[j].Value)
	})
}

// naturalLess compares strings the way the wildcard matcher's natural order
// does: runs of digits compare numerically rather than lexically, so
// "file2" sorts before "file10".
func naturalLess(a, b string) bool {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		ca, cb := ar[i], br[j]
		if isDigit(ca) && isDigit(cb) {
			starti, startj := i, j
			for i < len(ar) && isDigit(ar[i]) {
				i++
			}
			for j < len(br) && isDigit(br[j]) {
				j++
			}
			na := strings.TrimLeft(string(ar[starti:i]), "0")
			nb := strings.TrimLeft(string(br[startj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(ar)-i < len(br)-j
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
