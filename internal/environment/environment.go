// Package environment reads shell-configuration variables off a running
// interp.Runner and keeps the OS environment synced with them, the same
// Vars-backed idiom autocd.go already uses for its two flags.
package environment

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

// GetPwd returns the runner's view of the current directory.
func GetPwd(runner *interp.Runner) string {
	if pwd := runner.Vars["PWD"].String(); pwd != "" {
		return pwd
	}
	wd, _ := os.Getwd()
	return wd
}

// GetLogLevel reads BISH_LOG_LEVEL, defaulting to info.
func GetLogLevel(runner *interp.Runner) zap.AtomicLevel {
	val := strings.ToLower(runner.Vars["BISH_LOG_LEVEL"].String())
	var level zap.AtomicLevel
	switch val {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return level
}

// ShouldCleanLogFile reports whether BISH_CLEAN_LOG is set, truncating the
// log file at startup instead of appending zstd frames to it.
func ShouldCleanLogFile(runner *interp.Runner) bool {
	val := strings.ToLower(runner.Vars["BISH_CLEAN_LOG"].String())
	return val == "1" || val == "true"
}

// GetHistorySize reads BISH_HISTORY_SIZE, defaulting to 1000.
func GetHistorySize(runner *interp.Runner) int {
	val := runner.Vars["BISH_HISTORY_SIZE"].String()
	if val == "" {
		return 1000
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 1000
	}
	return n
}

// DynamicEnviron implements expand.Environ over the OS environment plus a
// small overlay of shell-specific variables (SHELL, BISH_BUILD_VERSION),
// so the interpreter sees both without mutating the real process
// environment until SyncVariablesToEnv is called.
type DynamicEnviron struct {
	overlay map[string]string
	system  map[string]string
}

var _ expand.Environ = (*DynamicEnviron)(nil)

// NewDynamicEnviron returns an empty environment overlay.
func NewDynamicEnviron() *DynamicEnviron {
	return &DynamicEnviron{overlay: make(map[string]string), system: make(map[string]string)}
}

// UpdateSystemEnv snapshots the current OS environment into the overlay's
// base layer.
func (d *DynamicEnviron) UpdateSystemEnv() {
	for _, kv := range os.Environ() {
		if name, val, ok := strings.Cut(kv, "="); ok {
			d.system[name] = val
		}
	}
}

// UpdateBishVar sets a shell-specific variable that is exported to child
// processes but does not come from the OS environment.
func (d *DynamicEnviron) UpdateBishVar(name, value string) {
	d.overlay[name] = value
}

func (d *DynamicEnviron) Get(name string) expand.Variable {
	if val, ok := d.overlay[name]; ok {
		return expand.Variable{Exported: true, Kind: expand.String, Str: val}
	}
	if val, ok := d.system[name]; ok {
		return expand.Variable{Exported: true, Kind: expand.String, Str: val}
	}
	return expand.Variable{}
}

func (d *DynamicEnviron) Each(fn func(name string, vr expand.Variable) bool) {
	for name, val := range d.system {
		if _, shadowed := d.overlay[name]; shadowed {
			continue
		}
		if !fn(name, expand.Variable{Exported: true, Kind: expand.String, Str: val}) {
			return
		}
	}
	for name, val := range d.overlay {
		if !fn(name, expand.Variable{Exported: true, Kind: expand.String, Str: val}) {
			return
		}
	}
}

// SyncVariablesToEnv exports every variable the runner knows about whose
// name is marked BISH_-prefixed or otherwise exported, so external tools
// invoked via `env`/os.Environ see them too.
func SyncVariablesToEnv(runner *interp.Runner) {
	for name, v := range runner.Vars {
		if !v.Exported || v.Kind != expand.String {
			continue
		}
		_ = os.Setenv(name, v.Str)
	}
}
