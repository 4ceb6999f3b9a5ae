package argexpand

import "strings"

// RewriteExecArgsShim is a startup-time compatibility shim, not part of the
// pipeline (spec.md section 9): when cmds is exactly one element reading
// exec "${@}" or exec "$@", it is replaced with exec followed by each of
// args single-quoted, so a login shell invoked with argv forwards them
// literally instead of re-splitting them.
func RewriteExecArgsShim(cmds []string, args []string) ([]string, bool) {
	if len(cmds) != 1 {
		return cmds, false
	}
	if cmds[0] != `exec "${@}"` && cmds[0] != `exec "$@"` {
		return cmds, false
	}
	var b strings.Builder
	b.WriteString("exec")
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(quoteSingleHard(arg))
	}
	out := append([]string{}, cmds...)
	out[0] = b.String()
	return out, true
}

func quoteSingleHard(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\\' || r == '\'' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}
