package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var stdout = termenv.NewOutput(os.Stdout)

// HEADING styles a section header in usage/help output.
var HEADING = func(s string) string {
	return stdout.String(s).
		Foreground(stdout.Color("11")).
		Bold().
		String()
}
