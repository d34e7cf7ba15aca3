// Package capture runs the external build/run tool and tees its combined output.
//
// A Runner creates the log directory, opens a timestamped log file with a short
// header, starts the child with stdout and stderr sharing a single pipe, and
// copies every line from that pipe to the console and to the log file. When the
// pipe reaches end of stream it waits for the child and reports its exit code.
//
// The loop is strictly sequential: one line is read, written to both sinks, then
// the next is read. A non-zero exit code is a normal Result, not an error.
package capture
