// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package errors maps engine failures to process exit codes. The invoking
// wrapper treats non-zero exit as an operational error, so the codes are a
// contract: findings never produce one.
package errors

const (
	// ExitCodeSuccess: scan completed and the report was published,
	// regardless of how many findings it contains.
	ExitCodeSuccess = 0
	// ExitCodeConfig: configuration error, e.g. the registry is missing,
	// unreadable, or empty. No report is written.
	ExitCodeConfig = 1
	// ExitCodeNoRoots: none of the scan roots were reachable.
	ExitCodeNoRoots = 2
	// ExitCodeReport: the report could not be written or published. A
	// missing report is worse than a clearly failed run.
	ExitCodeReport = 3
)

// CommandError carries an exit code alongside the underlying error.
type CommandError struct {
	err  error
	code int
}

func NewCommandError(err error, code int) *CommandError {
	return &CommandError{err: err, code: code}
}

func (e *CommandError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.err
}

// HasError reports whether there is an actual error message to print.
// Exit-code-only results stay silent.
func (e *CommandError) HasError() bool {
	return e.err != nil
}

func (e *CommandError) ExitCode() int {
	return e.code
}
