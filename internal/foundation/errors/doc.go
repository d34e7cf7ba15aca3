// Package errors provides the classified error primitives used across runlog.
//
// Every failure that stops runlog before or while the child process runs is a
// ClassifiedError: it carries a category (what went wrong), a severity (how bad
// it is) and structured context (paths, command tokens). The CLIErrorAdapter turns
// them into a diagnostic on stderr and a process exit code.
//
// A child process exiting non-zero is never represented here; that exit code is
// the normal result of a run.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "create log directory").
//		WithContext("path", dir).
//		Build()
package errors
