// Package historyadapter implements argexpand.HistoryStore over the
// persisted command history (internal/history), so $history and
// $history[n] resolve against real recorded commands instead of an
// in-memory stand-in.
package historyadapter

import "github.com/wispshell/wisp/internal/history"

// Adapter exposes a history.HistoryManager's entries newest-first, the
// order fish's own history variable iterates in.
type Adapter struct {
	Manager *history.HistoryManager
}

// New wraps manager as an argexpand.HistoryStore.
func New(manager *history.HistoryManager) *Adapter {
	return &Adapter{Manager: manager}
}

func (a *Adapter) Size() int {
	n, err := a.Manager.Count()
	if err != nil {
		return 0
	}
	return n
}

func (a *Adapter) All() []string {
	entries, err := a.Manager.GetAllEntries()
	if err != nil {
		return nil
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Command
	}
	return out
}

func (a *Adapter) ItemsAtIndexes(idx []int) map[int]string {
	all := a.All()
	out := make(map[int]string, len(idx))
	for _, i := range idx {
		pos := i - 1
		if pos < 0 || pos >= len(all) {
			continue
		}
		out[i] = all[pos]
	}
	return out
}
