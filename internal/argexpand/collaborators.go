package argexpand

import "context"

// EnvStore is the environment collaborator of spec.md section 6. PATH and
// CDPATH are assumed pre-split by the implementation.
type EnvStore interface {
	Get(name string) (values []string, ok bool)
	PwdSlash() string
}

// HistoryStore answers the "history" pseudo-variable. Indices are 1-based,
// index 1 being the most recently recorded entry.
type HistoryStore interface {
	Size() int
	All() []string
	ItemsAtIndexes(indexes []int) map[int]string
}

// SubshellExecutor runs the text of a command substitution and returns its
// output lines with trailing newlines stripped.
type SubshellExecutor interface {
	ExecSubshell(ctx context.Context, cmd string, applyExitStatus bool) (lines []string, readTooMuch bool, err error)
}

// Process is a single process within a Job.
type Process struct {
	PID       int
	ActualCmd string
}

// Job mirrors the job/process table contract of spec.md section 6.
type Job struct {
	PGID      int
	JobID     int
	Command   string
	Processes []Process
}

// CommandIsEmpty reports whether the job carries no command line, mirroring
// job.command_is_empty().
func (j Job) CommandIsEmpty() bool { return j.Command == "" }

// JobTable is read on the main thread; see MainThreadGate.
type JobTable interface {
	Jobs() []Job
	JobByID(id int) (Job, bool)
}

// BackgroundTracker exposes proc_last_bg_pid, read-only from this engine's
// perspective.
type BackgroundTracker interface {
	LastBackgroundPID() (pid int, ok bool)
}

// ProcessEntry is a single OS process visible to the current user.
type ProcessEntry struct {
	PID     int
	Command string
}

// ProcessEnumerator lists OS processes; safe to call from any thread.
type ProcessEnumerator interface {
	Enumerate() ([]ProcessEntry, error)
}

// MainThreadGate models the "perform on main" rendezvous of spec.md section
// 5: job-table and history reads must happen on the coordinator thread.
type MainThreadGate interface {
	IsMainThread() bool
	RunOnMain(fn func())
}

// WildcardMatcher walks the filesystem for one working directory and reports
// a per-directory match count: >0 matched, 0 no match, <0 cancelled.
type WildcardMatcher interface {
	Expand(ctx context.Context, pattern string, workingDir string, flags Flags, out *[]Completion) int
}

// UserDirectoryLookup resolves a username to its home directory, mirroring a
// getpwnam_r lookup.
type UserDirectoryLookup interface {
	LookupHome(username string) (dir string, ok bool)
}

// AbbreviationStore holds the process-wide abbreviation map.
type AbbreviationStore interface {
	Lookup(src string) (string, bool)
	Put(key, value string)
	Erase(key string)
}
