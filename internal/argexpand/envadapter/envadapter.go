// Package envadapter implements argexpand.EnvStore over an mvdan.cc/sh/v3
// interp.Runner, the interpreter the cmd/wisp entrypoint embeds for running
// parsed commands and command substitutions.
package envadapter

import (
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"

	"github.com/wispshell/wisp/internal/argexpand"
)

// Adapter reads variables out of a running interp.Runner's environment.
// PATH and CDPATH are special-cased to their list-separator-delimited
// segments regardless of whether the runner stores them as an indexed
// array or a scalar string, matching how a real shell treats them.
type Adapter struct {
	Runner *interp.Runner
}

var _ argexpand.EnvStore = (*Adapter)(nil)

// New wraps runner as an EnvStore.
func New(runner *interp.Runner) *Adapter {
	return &Adapter{Runner: runner}
}

func (a *Adapter) Get(name string) ([]string, bool) {
	v, ok := a.Runner.Vars[name]
	if !ok {
		return nil, false
	}
	switch name {
	case "PATH", "CDPATH":
		return splitPathLike(v), true
	}
	switch v.Kind {
	case expand.Indexed:
		return append([]string{}, v.List...), true
	default:
		s := v.String()
		if s == "" {
			return nil, true
		}
		return []string{s}, true
	}
}

func splitPathLike(v expand.Variable) []string {
	if v.Kind == expand.Indexed {
		return append([]string{}, v.List...)
	}
	s := v.String()
	if s == "" {
		return nil
	}
	return strings.Split(s, string(filepath.ListSeparator))
}

func (a *Adapter) PwdSlash() string {
	pwd := a.Runner.Vars["PWD"].String()
	if pwd == "" {
		pwd = "/"
	}
	if !strings.HasSuffix(pwd, "/") {
		pwd += "/"
	}
	return pwd
}

// SetArray stores name as an indexed variable, the representation argexpand
// slices and cartesian products expect when reading it back through Get.
func SetArray(runner *interp.Runner, name string, values []string, exported bool) {
	runner.Vars[name] = expand.Variable{
		Exported: exported,
		Kind:     expand.Indexed,
		List:     append([]string{}, values...),
	}
}

// SetString stores name as a scalar exported variable.
func SetString(runner *interp.Runner, name, value string, exported bool) {
	runner.Vars[name] = expand.Variable{
		Exported: exported,
		Kind:     expand.String,
		Str:      value,
	}
}
