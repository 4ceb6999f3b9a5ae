package completion

import (
	"context"
	"strings"
	"sync"

	"github.com/wispshell/wisp/internal/argexpand"
)

// CompletionType distinguishes how a CompletionSpec produces candidates.
type CompletionType int

const (
	WordListCompletion CompletionType = iota
	FunctionCompletion
	CommandCompletion
)

// CompletionSpec is one registered `complete` builtin entry: a command name
// plus the source its candidates come from.
type CompletionSpec struct {
	Command string
	Type    CompletionType
	Value   string
}

// CompletionManager holds user-registered completion specs (via the
// `complete` builtin) alongside the static/documentation completers.
// cmd/wisp uses it to back the `complete` builtin; Suggest has no caller in
// the REPL. Candidate *gathering* goes through argexpand.Engine in
// ForCompletions mode for path/wildcard words; ranking is this package's
// own concern (see fuzzyrank.go), kept separate from the expansion engine
// itself.
type CompletionManager struct {
	mu    sync.RWMutex
	specs map[string]CompletionSpec

	static *StaticCompleter
	docs   *DocumentationCompleter
}

// NewCompletionManager builds a manager with the default static and
// documentation completers registered.
func NewCompletionManager() *CompletionManager {
	return &CompletionManager{
		specs:  make(map[string]CompletionSpec),
		static: NewStaticCompleter(),
		docs:   NewDocumentationCompleter(),
	}
}

func (m *CompletionManager) AddSpec(spec CompletionSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs[spec.Command] = spec
}

func (m *CompletionManager) RemoveSpec(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.specs, command)
}

func (m *CompletionManager) GetSpec(command string) (CompletionSpec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.specs[command]
	return spec, ok
}

func (m *CompletionManager) ListSpecs() []CompletionSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	specs := make([]CompletionSpec, 0, len(m.specs))
	for _, spec := range m.specs {
		specs = append(specs, spec)
	}
	return specs
}

// Suggest gathers raw candidates for the word being completed, from the
// word list of a `complete -W` spec registered for command (specs
// registered with -F or -C add no candidates), the static/documentation
// completers, and — when word looks like a path — the expansion engine's
// wildcard stage run in ForCompletions mode. Results are fuzzy-ranked
// against word before returning.
func (m *CompletionManager) Suggest(ctx context.Context, engine *argexpand.Engine, command string, args []string, word string) []Candidate {
	var candidates []Candidate

	if spec, ok := m.GetSpec(command); ok && spec.Type == WordListCompletion {
		for _, w := range strings.Fields(spec.Value) {
			candidates = append(candidates, Candidate{Value: w})
		}
	}

	candidates = append(candidates, m.static.GetCompletions(command, args)...)

	if docCands, ok := m.docs.GetCompletions(command, args, word, len(word)); ok {
		candidates = append(candidates, docCands...)
	}

	if engine != nil && looksLikePath(word) {
		var errs argexpand.ErrorList
		status, completions := engine.ExpandString(ctx, word+string(argexpand.AnyString), argexpand.ForCompletions, &errs)
		if status != argexpand.StatusError {
			for _, c := range completions {
				candidates = append(candidates, Candidate{Value: c.Value, Description: c.Description})
			}
		}
	}

	return RankCandidates(candidates, word)
}

func looksLikePath(word string) bool {
	return strings.ContainsAny(word, "/.") || word == "~" || strings.HasPrefix(word, "~")
}
