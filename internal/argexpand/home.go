package argexpand

import (
	"os/user"
	"path/filepath"
	"strings"
)

type osUserLookup struct{}

func (osUserLookup) LookupHome(username string) (string, bool) {
	u, err := user.Lookup(username)
	if err != nil {
		return "", false
	}
	return u.HomeDir, true
}

func realpath(path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", false
	}
	return abs, true
}

// homeDirectoryName splits input (which begins with HOME_DIRECTORY) into
// the username span (possibly empty) and the index of the first '/' or the
// end of the string.
func homeDirectoryName(input []rune) (username string, tailIdx int) {
	idx := -1
	for i := 1; i < len(input); i++ {
		if input[i] == '/' {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = len(input)
	}
	return string(input[1:idx]), idx
}

// expandHomeDirectory replaces a leading HOME_DIRECTORY marker with the
// resolved home directory (spec.md section 4.5).
func (e *Engine) expandHomeDirectory(input []rune) []rune {
	if len(input) == 0 || input[0] != HomeDirectory {
		return input
	}
	username, tailIdx := homeDirectoryName(input)

	var home string
	haveHome := false
	if username == "" {
		values, ok := e.Env.Get("HOME")
		if !ok || len(values) == 0 || values[0] == "" {
			return []rune{}
		}
		home = values[0]
		haveHome = true
	} else {
		lookup := e.UserLookup
		if lookup == nil {
			lookup = osUserLookup{}
		}
		if dir, ok := lookup.LookupHome(username); ok {
			home = dir
			haveHome = true
		}
	}

	if haveHome {
		if real, ok := realpath(home); ok {
			out := make([]rune, 0, len(real)+len(input)-tailIdx)
			out = append(out, []rune(real)...)
			out = append(out, input[tailIdx:]...)
			return out
		}
	}

	out := append([]rune{}, input...)
	out[0] = '~'
	return out
}

// ExpandTilde marks a leading '~' as HOME_DIRECTORY and resolves it
// immediately (spec.md section 6).
func (e *Engine) ExpandTilde(input string) string {
	if input == "" || input[0] != '~' {
		return input
	}
	marked := []rune(input)
	marked[0] = HomeDirectory
	return string(e.expandHomeDirectory(marked))
}

// ReplaceHomeDirectoryWithTilde inverts tilde expansion for display.
func (e *Engine) ReplaceHomeDirectoryWithTilde(path string) string {
	if !strings.HasPrefix(path, "/") {
		return path
	}
	home := e.ExpandTilde("~")
	if home == "" {
		return path
	}
	if !strings.HasSuffix(home, "/") {
		home += "/"
	}
	if strings.HasPrefix(path, home) {
		return "~/" + path[len(home):]
	}
	return path
}

// unexpandTildes re-introduces '~' in replacement-style completions whose
// expansion begins with the resolved home directory (spec.md section 4.1
// post-processing pass).
func (e *Engine) unexpandTildes(input string, completions []Completion) {
	if input == "" || input[0] != '~' {
		return
	}
	hasCandidate := false
	for _, c := range completions {
		if c.Flags&FlagReplacesToken != 0 {
			hasCandidate = true
			break
		}
	}
	if !hasCandidate {
		return
	}

	marked := []rune(input)
	marked[0] = HomeDirectory
	username, _ := homeDirectoryName(marked)
	usernameWithTilde := "~" + username
	home := e.ExpandTilde(usernameWithTilde)
	if home == "" {
		return
	}

	for i := range completions {
		c := &completions[i]
		if c.Flags&FlagReplacesToken != 0 && strings.HasPrefix(c.Value, home) {
			c.Value = usernameWithTilde + c.Value[len(home):]
			c.Flags |= FlagDontEscapeTildes
		}
	}
}
