// Package command builds the argument list for the external build/run tool.
package command

import "strings"

// DefaultTool is the executable invoked when no tool is configured.
const DefaultTool = "flutter"

const (
	subcommand  = "run"
	targetFlag  = "-t"
	verboseFlag = "--verbose"
	deviceFlag  = "-d"
)

// Build returns `<tool...> run -t <target> --verbose [-d <device>]`.
// The device pair is appended only when device is non-empty.
func Build(tool []string, target, device string) []string {
	if len(tool) == 0 || tool[0] == "" {
		tool = []string{DefaultTool}
	}
	args := make([]string, 0, len(tool)+6)
	args = append(args, tool...)
	args = append(args, subcommand, targetFlag, target, verboseFlag)
	if device != "" {
		args = append(args, deviceFlag, device)
	}
	return args
}

// String joins the argument list with single spaces, as written to the log header.
func String(args []string) string {
	return strings.Join(args, " ")
}
