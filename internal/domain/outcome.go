package domain

import "time"

// MovedPath records one completed trash move.
type MovedPath struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PathFailure records one path that could not be moved.
type PathFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ApplyOutcome is the per-path result of a trash-move batch, in input order.
// A non-empty Errors list means the entries in Moved are already committed.
type ApplyOutcome struct {
	Moved          []MovedPath   `json:"moved"`
	SkippedMissing []string      `json:"skipped_missing"`
	Errors         []PathFailure `json:"errors"`
}

// HasErrors reports whether any path failed.
func (o ApplyOutcome) HasErrors() bool {
	return len(o.Errors) > 0
}

// CommandRequest is the input to the subprocess primitive.
type CommandRequest struct {
	Cmd     string
	Args    []string
	Timeout time.Duration
	// AsInvokingUser drops to the sudo caller's uid/gid and home when the
	// process runs as root via sudo.
	AsInvokingUser bool
}

// CommandOutput is what a finished subprocess left behind. ExitCode is -1
// when the process was terminated without an exit status.
type CommandOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OutcomeStatus is the tri-state classification of a command run.
type OutcomeStatus string

const (
	OutcomeOk             OutcomeStatus = "ok"
	OutcomeOkWithWarnings OutcomeStatus = "ok_with_warnings"
	OutcomeError          OutcomeStatus = "error"
)

// ClassifiedOutcome interprets one RunCmd attempt.
type ClassifiedOutcome struct {
	Status    OutcomeStatus
	Reason    string
	Retryable bool
}

// Ok is a clean success.
func Ok() ClassifiedOutcome {
	return ClassifiedOutcome{Status: OutcomeOk}
}

// Warn is a success the user should read about.
func Warn(reason string) ClassifiedOutcome {
	return ClassifiedOutcome{Status: OutcomeOkWithWarnings, Reason: reason}
}

// Fail is a failure that may succeed after the user fixes something.
func Fail(reason string) ClassifiedOutcome {
	return ClassifiedOutcome{Status: OutcomeError, Reason: reason, Retryable: true}
}

// FailFinal is a failure that retrying in the same way cannot fix.
func FailFinal(reason string) ClassifiedOutcome {
	return ClassifiedOutcome{Status: OutcomeError, Reason: reason}
}

// IsError reports whether the outcome is an Error.
func (o ClassifiedOutcome) IsError() bool {
	return o.Status == OutcomeError
}
