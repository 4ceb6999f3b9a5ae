// Package procenum implements argexpand.ProcessEnumerator. It lists OS
// processes visible to the current user for %proc expansion and
// completions, the same getResources split the teacher's internal/system
// package uses for CPU/RAM sampling: one implementation on Linux reading
// the kernel directly, a portable fallback for everything else.
package procenum

import "github.com/wispshell/wisp/internal/argexpand"

// Enumerator lists processes via the platform-specific backend selected at
// build time by procenum_linux.go / procenum_other.go.
type Enumerator struct{}

var _ argexpand.ProcessEnumerator = (*Enumerator)(nil)

// New returns a ProcessEnumerator for the current platform.
func New() *Enumerator { return &Enumerator{} }

// Enumerate lists currently visible processes.
func (e *Enumerator) Enumerate() ([]argexpand.ProcessEntry, error) {
	return enumerate()
}
