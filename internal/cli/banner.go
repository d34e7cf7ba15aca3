package cli

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/runlog/internal/capture"
	"git.home.luguber.info/inful/runlog/internal/command"
)

// WriteBanner prints what is about to run and the operator instructions.
func WriteBanner(w io.Writer, plan capture.Plan, instructions []string) {
	_, _ = fmt.Fprintln(w, "Running:", command.String(plan.Command))
	_, _ = fmt.Fprintln(w, "Project:", plan.Project)
	_, _ = fmt.Fprintln(w, "Log file:", plan.LogFile)
	if len(instructions) > 0 {
		_, _ = fmt.Fprintln(w, "\nInstructions:")
		for _, line := range instructions {
			_, _ = fmt.Fprintln(w, "  "+line)
		}
	}
	_, _ = fmt.Fprintln(w, "\n---")
	_, _ = fmt.Fprintln(w)
}
