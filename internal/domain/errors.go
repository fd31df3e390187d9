package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath matches every trash-target validation failure.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotAllowlisted marks a well-formed home path that is not a known cache.
	ErrNotAllowlisted = errors.New("path is not in the TRASH_MOVE allowlist")
	// ErrDeleteForbidden rejects DELETE plans; only TRASH_MOVE may mutate files.
	ErrDeleteForbidden = errors.New("DELETE is not permitted; use TRASH_MOVE")
	// ErrCommandNotAllowlisted rejects a RUN_CMD before anything is spawned.
	ErrCommandNotAllowlisted = errors.New("command is not in the execution allowlist")
	// ErrMultipleCommands enforces one RUN_CMD per confirmation cycle.
	ErrMultipleCommands = errors.New("only one RUN_CMD can run per confirmation")
	// ErrConfirmationDeclined is returned when a typed token did not match.
	ErrConfirmationDeclined = errors.New("confirmation declined")
	// ErrRiskCeiling rejects a requested maximum risk the command cannot honor.
	ErrRiskCeiling = errors.New("risk ceiling not supported")
	// ErrUnknownTarget is returned for --target ids that match nothing.
	ErrUnknownTarget = errors.New("unknown target")
)

// PathError describes why a trash target was refused.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Is makes every PathError match ErrInvalidPath in addition to its cause.
func (e *PathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// LaunchError means the subprocess could not be started or did not finish in
// time. It is surfaced as-is and never retried.
type LaunchError struct {
	Cmdline string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("could not run %s: %v", e.Cmdline, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// PartialApplyError aggregates the paths that failed inside a trash batch.
type PartialApplyError struct {
	Moved    int
	Failures []PathFailure
	LogPath  string
}

func (e *PartialApplyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d trash moves failed", len(e.Failures), len(e.Failures)+e.Moved)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %s", f.Path, f.Error)
	}
	if e.LogPath != "" {
		fmt.Fprintf(&b, "\nlog: %s", e.LogPath)
	}
	return b.String()
}

// ClassifiedError is a command that ran but whose outcome is a failure.
type ClassifiedError struct {
	ActionID string
	Reason   string
	Output   CommandOutput
	Repairs  []ActionPlan
	LogPath  string
}

func (e *ClassifiedError) Error() string {
	msg := fmt.Sprintf("%s failed: %s", e.ActionID, e.Reason)
	if e.LogPath != "" {
		msg += "\nlog: " + e.LogPath
	}
	return msg
}

// Exit codes returned by the macdiet binary.
const (
	ExitSuccess         = 0
	ExitInvalidArgs     = 2
	ExitFailure         = 10
	ExitExternalCommand = 20
)

// ExitError attaches a process exit code to an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// InvalidArgs wraps err with ExitInvalidArgs.
func InvalidArgs(err error) error {
	return &ExitError{Code: ExitInvalidArgs, Err: err}
}

// ExternalCommand wraps err with ExitExternalCommand.
func ExternalCommand(err error) error {
	return &ExitError{Code: ExitExternalCommand, Err: err}
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var classified *ClassifiedError
	var launch *LaunchError
	if errors.As(err, &classified) || errors.As(err, &launch) {
		return ExitExternalCommand
	}
	if errors.Is(err, ErrInvalidPath) || errors.Is(err, ErrRiskCeiling) ||
		errors.Is(err, ErrUnknownTarget) || errors.Is(err, ErrMultipleCommands) ||
		errors.Is(err, ErrCommandNotAllowlisted) {
		return ExitInvalidArgs
	}
	return ExitFailure
}
