// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The safety decisions themselves (path and command
// allowlists, output classification) are plain functions; the ports cover the
// parts with side effects: moving files, spawning processes, prompting the
// user, persisting audit events and loading configuration.
package ports

import (
	"context"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.config/macdiet/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// TrashMover applies a batch of TRASH_MOVE plans.
// Implementations must validate the batch before touching the filesystem.
type TrashMover interface {
	Apply(actions []domain.ActionPlan, home string) (domain.ApplyOutcome, error)
}

// CommandRunner runs one external command with a deadline and captures its
// exit code, stdout and stderr. A timeout or spawn failure is a
// *domain.LaunchError; a non-zero exit is not an error.
type CommandRunner interface {
	Run(ctx context.Context, req domain.CommandRequest) (domain.CommandOutput, error)
}

// ConfirmationPrompter collects typed confirmations for a contract.
// It returns true only when every step was answered with its exact token.
type ConfirmationPrompter interface {
	Confirm(contract domain.ConfirmationContract, subject string) (bool, error)
	Enabled() bool
}

// AuditSink receives one event per mutation batch or subprocess attempt.
type AuditSink interface {
	Emit(ctx context.Context, event domain.AuditEvent) error
	Close() error
}

// AuditRepository exposes recorded audit events for inspection.
type AuditRepository interface {
	Records(limit int, search string) ([]domain.AuditRecord, error)
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
