//go:build !linux

package procenum

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/wispshell/wisp/internal/argexpand"
)

// enumerate shells out to `ps`, the portable fallback for platforms without
// a /proc filesystem to read directly.
func enumerate() ([]argexpand.ProcessEntry, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, err
	}

	var entries []argexpand.ProcessEntry
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		pid, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < 2 {
			continue
		}
		entries = append(entries, argexpand.ProcessEntry{PID: pid, Command: strings.TrimSpace(fields[1])})
	}
	return entries, nil
}
