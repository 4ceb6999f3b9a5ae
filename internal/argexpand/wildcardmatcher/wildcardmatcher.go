// Package wildcardmatcher implements argexpand.WildcardMatcher against the
// real filesystem, the collaborator spec.md section 6 leaves external to the
// expansion engine.
package wildcardmatcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/wispshell/wisp/internal/argexpand"
)

// Matcher walks directory trees to resolve the marker-alphabet wildcard
// atoms (ANY_CHAR, ANY_STRING, ANY_STRING_RECURSIVE) left in a path after
// INTERNAL_SEPARATOR stripping.
type Matcher struct{}

// New returns a filesystem-backed Matcher.
func New() *Matcher { return &Matcher{} }

var _ argexpand.WildcardMatcher = (*Matcher)(nil)

type match struct {
	relPath string
	isDir   bool
}

// Expand implements argexpand.WildcardMatcher.
func (m *Matcher) Expand(ctx context.Context, pattern, workingDir string, flags argexpand.Flags, out *[]argexpand.Completion) int {
	segments := splitPattern([]rune(pattern))
	var matches []match
	cancelled := false
	walk(ctx, workingDir, "", segments, flags, &matches, &cancelled)
	if cancelled {
		return -1
	}
	for _, mr := range matches {
		comp := argexpand.Completion{Value: mr.relPath}
		if flags.Has(argexpand.ForCompletions) {
			comp.Flags |= argexpand.FlagReplacesToken
			if !flags.Has(argexpand.NoDescriptions) {
				if mr.isDir {
					comp.Description = "Directory"
				} else {
					comp.Description = "File"
				}
			}
		}
		*out = append(*out, comp)
	}
	return len(matches)
}

// splitPattern breaks pattern into '/'-delimited segments. Markers never
// include '/', so a plain rune scan suffices.
func splitPattern(pattern []rune) [][]rune {
	var segs [][]rune
	start := 0
	for i, r := range pattern {
		if r == '/' {
			segs = append(segs, pattern[start:i])
			start = i + 1
		}
	}
	segs = append(segs, pattern[start:])
	return segs
}

func joinRel(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func walk(ctx context.Context, workingDir, consumedPrefix string, segments [][]rune, flags argexpand.Flags, results *[]match, cancelled *bool) {
	if ctx.Err() != nil {
		*cancelled = true
		return
	}
	if len(segments) == 0 {
		return
	}
	seg := segments[0]
	rest := segments[1:]

	if len(seg) == 1 && seg[0] == argexpand.AnyStringRecursive {
		if len(rest) == 0 {
			appendIfMatches(workingDir, consumedPrefix, results)
		} else {
			walk(ctx, workingDir, consumedPrefix, rest, flags, results, cancelled)
		}
		entries, err := os.ReadDir(filepath.Join(workingDir, consumedPrefix))
		if err != nil {
			return
		}
		for _, entry := range entries {
			if ctx.Err() != nil {
				*cancelled = true
				return
			}
			if strings.HasPrefix(entry.Name(), ".") || !entry.IsDir() {
				continue
			}
			walk(ctx, workingDir, joinRel(consumedPrefix, entry.Name()), segments, flags, results, cancelled)
		}
		return
	}

	dirPath := filepath.Join(workingDir, consumedPrefix)
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			*cancelled = true
			return
		}
		name := entry.Name()
		if !matchSegment(seg, []rune(name)) {
			continue
		}
		nextPrefix := joinRel(consumedPrefix, name)
		if len(rest) == 0 {
			if flags.Has(argexpand.ExecutablesOnly) {
				if entry.IsDir() || !isExecutable(dirPath, name) {
					continue
				}
			}
			*results = append(*results, match{relPath: nextPrefix, isDir: entry.IsDir()})
			continue
		}
		if !entry.IsDir() {
			continue
		}
		walk(ctx, workingDir, nextPrefix, rest, flags, results, cancelled)
	}
}

func appendIfMatches(workingDir, prefix string, results *[]match) {
	if prefix == "" {
		return
	}
	info, err := os.Stat(filepath.Join(workingDir, prefix))
	if err != nil {
		return
	}
	*results = append(*results, match{relPath: prefix, isDir: info.IsDir()})
}

// matchSegment matches a single path component's name against a pattern
// segment that may contain ANY_CHAR/ANY_STRING markers. A leading dot in
// name is never matched by a leading wildcard marker, mirroring the
// convention that dotfiles require an explicit dot in the pattern.
func matchSegment(pattern, name []rune) bool {
	if len(name) > 0 && name[0] == '.' {
		if len(pattern) > 0 && (pattern[0] == argexpand.AnyChar || pattern[0] == argexpand.AnyString) {
			return false
		}
	}
	return globMatch(pattern, name)
}

func globMatch(p, s []rune) bool {
	var pi, si, starIdx, match int
	starIdx = -1
	for si < len(s) {
		if pi < len(p) && (p[pi] == argexpand.AnyChar || p[pi] == s[si]) {
			pi++
			si++
			continue
		}
		if pi < len(p) && p[pi] == argexpand.AnyString {
			starIdx = pi
			match = si
			pi++
			continue
		}
		if starIdx != -1 {
			pi = starIdx + 1
			match++
			si = match
			continue
		}
		return false
	}
	for pi < len(p) && p[pi] == argexpand.AnyString {
		pi++
	}
	return pi == len(p)
}

func isExecutable(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
