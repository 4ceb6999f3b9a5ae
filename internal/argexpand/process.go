package argexpand

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// matchPID reports whether proc is a prefix of cmd directly, or a prefix of
// cmd's final path component; offset is where within cmd the match begins.
func matchPID(cmd, proc string) (offset int, ok bool) {
	if proc != "" && strings.HasPrefix(cmd, proc) {
		return 0, true
	}
	base := filepath.Base(cmd)
	if strings.HasPrefix(base, proc) {
		return len(cmd) - len(base), true
	}
	return 0, false
}

func (e *Engine) findJob(proc string, flags Flags, out *[]Completion) bool {
	if e.Jobs == nil {
		return false
	}

	if proc == "" && !flags.Has(ForCompletions) {
		for _, j := range e.Jobs.Jobs() {
			if !j.CommandIsEmpty() {
				appendCompletion(out, strconv.Itoa(j.PGID))
				return true
			}
		}
		return false
	}

	if isNumeric(proc) {
		if flags.Has(ForCompletions) {
			for _, j := range e.Jobs.Jobs() {
				if j.CommandIsEmpty() {
					continue
				}
				jid := strconv.Itoa(j.JobID)
				if strings.HasPrefix(jid, proc) {
					*out = append(*out, Completion{
						Value:       jid[len(proc):],
						Description: fmt.Sprintf("Job: %s", j.Command),
					})
				}
			}
			return true
		}
		if jid, err := strconv.Atoi(proc); err == nil && jid > 0 {
			if j, ok := e.Jobs.JobByID(jid); ok && !j.CommandIsEmpty() {
				appendCompletion(out, strconv.Itoa(j.PGID))
			}
		}
		return true
	}

	found := false
	for _, j := range e.Jobs.Jobs() {
		if j.CommandIsEmpty() {
			continue
		}
		offset, ok := matchPID(j.Command, proc)
		if !ok {
			continue
		}
		if flags.Has(ForCompletions) {
			*out = append(*out, Completion{Value: j.Command[offset+len(proc):], Description: "Job"})
		} else {
			appendCompletion(out, strconv.Itoa(j.PGID))
			found = true
		}
	}
	if found {
		return true
	}

	for _, j := range e.Jobs.Jobs() {
		if j.CommandIsEmpty() {
			continue
		}
		for _, p := range j.Processes {
			if p.ActualCmd == "" {
				continue
			}
			offset, ok := matchPID(p.ActualCmd, proc)
			if !ok {
				continue
			}
			if flags.Has(ForCompletions) {
				*out = append(*out, Completion{Value: p.ActualCmd[offset+len(proc):], Description: "Child process"})
			} else {
				appendCompletion(out, strconv.Itoa(p.PID))
				found = true
			}
		}
	}
	return found
}

func (e *Engine) findProcess(proc string, flags Flags, out *[]Completion) {
	if !flags.Has(SkipJobs) && e.Jobs != nil {
		var found bool
		dispatch := func() { found = e.findJob(proc, flags, out) }
		if e.MainThread != nil {
			e.MainThread.RunOnMain(dispatch)
		} else {
			dispatch()
		}
		if found {
			return
		}
	}

	if e.ProcessEnum == nil {
		return
	}
	entries, err := e.ProcessEnum.Enumerate()
	if err != nil {
		return
	}
	for _, p := range entries {
		offset, ok := matchPID(p.Command, proc)
		if !ok {
			continue
		}
		if flags.Has(ForCompletions) {
			*out = append(*out, Completion{Value: p.Command[offset+len(proc):], Description: "Process"})
		} else {
			appendCompletion(out, strconv.Itoa(p.PID))
		}
	}
}

// expandPID is stage 4's process/job half (spec.md section 4.6). instr is
// marker-alphabet text that may still carry INTERNAL_SEPARATOR.
func (e *Engine) expandPID(instrWithSep []rune, flags Flags, out *[]Completion, errs *ErrorList) bool {
	if !containsMarker(instrWithSep, InternalSeparator, ProcessExpand) {
		appendCompletion(out, string(instrWithSep))
		return true
	}

	instr := removeInternalSeparators(instrWithSep, false)
	if len(instr) == 0 || instr[0] != ProcessExpand {
		appendCompletion(out, string(instr))
		return true
	}

	rest := string(instr[1:])

	if flags.Has(ForCompletions) {
		if strings.HasPrefix("self", rest) {
			*out = append(*out, Completion{Value: "self"[len(rest):], Description: "Shell process"})
		}
		if strings.HasPrefix("last", rest) {
			*out = append(*out, Completion{Value: "last"[len(rest):], Description: "Last background job"})
		}
	} else {
		switch rest {
		case "self":
			appendCompletion(out, strconv.Itoa(os.Getpid()))
			return true
		case "last":
			if e.Background != nil {
				if pid, ok := e.Background.LastBackgroundPID(); ok {
					appendCompletion(out, strconv.Itoa(pid))
				}
			}
			return true
		}
	}

	before := len(*out)
	e.findProcess(rest, flags, out)

	if len(*out) == before && !flags.Has(ForCompletions) {
		errs.appendSyntax(1, "Unknown command: '%s'", rest)
		return false
	}
	return true
}
