// Package jobtable implements argexpand.JobTable and
// argexpand.BackgroundTracker as an explicit, in-process registry. The
// interpreter this shell embeds (mvdan.cc/sh/v3) runs `&` commands
// asynchronously but keeps no job-control bookkeeping of its own, so the
// registry is a layer the shell maintains on top of the kernel's process
// table. Entries exist only for jobs registered through Add; the shell's
// command-execution path does not call Add, so a table it holds stays empty.
package jobtable

import (
	"sync"

	"github.com/wispshell/wisp/internal/argexpand"
)

// Table is a thread-safe job table keyed by job ID, plus the single most
// recently backgrounded PID ($!).
type Table struct {
	mu       sync.RWMutex
	jobs     map[int]argexpand.Job
	order    []int
	lastBG   int
	haveLast bool
	nextID   int
}

var _ argexpand.JobTable = (*Table)(nil)
var _ argexpand.BackgroundTracker = (*Table)(nil)

// New returns an empty job table.
func New() *Table {
	return &Table{jobs: make(map[int]argexpand.Job)}
}

// Add registers a new backgrounded job and returns its assigned job ID.
func (t *Table) Add(pgid int, command string, processes []argexpand.Process) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.jobs[id] = argexpand.Job{
		PGID:      pgid,
		JobID:     id,
		Command:   command,
		Processes: processes,
	}
	t.order = append(t.order, id)

	if len(processes) > 0 {
		t.lastBG = processes[len(processes)-1].PID
		t.haveLast = true
	} else {
		t.lastBG = pgid
		t.haveLast = true
	}

	return id
}

// Remove drops a job from the table once it has been reaped, e.g. after
// `wait` reports its completion.
func (t *Table) Remove(jobID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.jobs, jobID)
	for i, id := range t.order {
		if id == jobID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Jobs lists the currently tracked jobs, oldest first.
func (t *Table) Jobs() []argexpand.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]argexpand.Job, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.jobs[id])
	}
	return out
}

// JobByID looks up a job by its shell-assigned ID.
func (t *Table) JobByID(id int) (argexpand.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	j, ok := t.jobs[id]
	return j, ok
}

// LastBackgroundPID returns the PID of the most recently backgrounded
// command, mirroring $!.
func (t *Table) LastBackgroundPID() (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.lastBG, t.haveLast
}
