//go:build linux

package procenum

import (
	"bytes"
	"os"
	"strconv"

	"github.com/wispshell/wisp/internal/argexpand"
)

// enumerate reads /proc directly, avoiding a `ps` subprocess per call.
func enumerate() ([]argexpand.ProcessEntry, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	out := make([]argexpand.ProcessEntry, 0, len(entries))
	for _, ent := range entries {
		pid, err := strconv.Atoi(ent.Name())
		if err != nil {
			continue
		}
		cmd, ok := readComm(pid)
		if !ok {
			continue
		}
		out = append(out, argexpand.ProcessEntry{PID: pid, Command: cmd})
	}
	return out, nil
}

// readComm reads /proc/<pid>/comm, falling back to the first argv token in
// /proc/<pid>/cmdline if comm is unavailable (process exited mid-scan).
func readComm(pid int) (string, bool) {
	base := "/proc/" + strconv.Itoa(pid)
	if data, err := os.ReadFile(base + "/comm"); err == nil {
		return string(bytes.TrimRight(data, "\n")), true
	}
	data, err := os.ReadFile(base + "/cmdline")
	if err != nil {
		return "", false
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}
