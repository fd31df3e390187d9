// Package fix selects actions from a plan document and applies the ones that
// are safe to automate: an R1 trash batch and at most one allowlisted
// command per confirmation cycle.
package fix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/audit"
	"github.com/doeshing/macdiet-go/internal/infrastructure/outcome"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
	"github.com/doeshing/macdiet-go/internal/pkg/logger"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// Request describes one fix invocation.
type Request struct {
	Report  domain.Report
	MaxRisk domain.RiskLevel
	Targets []string
	Timeout time.Duration
}

// PlanResult is the dry-run view of a request.
type PlanResult struct {
	MaxRisk   domain.RiskLevel
	Selected  []domain.ActionPlan
	Partition Partition
}

// CommandResult is what the confirmed command produced.
type CommandResult struct {
	Action     domain.ActionPlan
	Output     domain.CommandOutput
	Classified domain.ClassifiedOutcome
}

// Result summarizes an apply. Cancelled is set when the user declined a
// confirmation; phases completed before that stay in the result.
type Result struct {
	Plan          PlanResult
	Trash         *domain.ApplyOutcome
	Command       *CommandResult
	Cancelled     bool
	AuditWarnings []string
}

// Observer is told about progress so a front end can render it. Every method
// is optional through NopObserver.
type Observer interface {
	Partitioned(p Partition)
	TrashApplied(o domain.ApplyOutcome)
	// CommandStarted is called right before the process is spawned and
	// returns a func called once it finished.
	CommandStarted(action domain.ActionPlan, line string) func()
}

// NopObserver ignores progress.
type NopObserver struct{}

func (NopObserver) Partitioned(Partition)            {}
func (NopObserver) TrashApplied(domain.ApplyOutcome) {}
func (NopObserver) CommandStarted(domain.ActionPlan, string) func() {
	return func() {}
}

// Service orchestrates plan selection, confirmation and execution.
type Service struct {
	Mover    ports.TrashMover
	Runner   ports.CommandRunner
	Prompter ports.ConfirmationPrompter
	Audit    ports.AuditSink
	Events   audit.Builder
	Logger   ports.Logger
	Home     string
	// LogPath is shown in errors so the user can find the audit trail.
	LogPath string
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Plan selects, orders, validates and partitions without side effects.
func (s *Service) Plan(req Request) (PlanResult, error) {
	if !req.MaxRisk.Valid() {
		return PlanResult{}, fmt.Errorf("%w: %s", domain.ErrRiskCeiling, req.MaxRisk)
	}
	selected, err := Select(req.Report, req.MaxRisk, req.Targets)
	if err != nil {
		return PlanResult{}, err
	}
	if err := security.Validate(selected, s.Home); err != nil {
		return PlanResult{}, err
	}
	part := PartitionActions(selected)
	s.log().Debug("fix plan selected", map[string]interface{}{
		"max_risk": req.MaxRisk.String(),
		"selected": len(selected),
		"trash":    len(part.Trash),
		"commands": len(part.Commands),
		"skipped":  len(part.Skipped),
	})
	return PlanResult{MaxRisk: req.MaxRisk, Selected: selected, Partition: part}, nil
}

// Apply runs the confirmed parts of req. The trash batch goes first; if any
// path failed the command is not offered.
func (s *Service) Apply(ctx context.Context, req Request, obs Observer) (Result, error) {
	if s.Mover == nil || s.Runner == nil || s.Prompter == nil {
		return Result{}, errors.New("fix.Service dependencies not satisfied")
	}
	if obs == nil {
		obs = NopObserver{}
	}

	planned, err := s.Plan(req)
	if err != nil {
		return Result{}, err
	}
	result := Result{Plan: planned}
	part := planned.Partition

	if len(part.Commands) > 1 {
		ids := make([]string, 0, len(part.Commands))
		for _, a := range part.Commands {
			ids = append(ids, a.ID)
		}
		return result, fmt.Errorf("%w (selected: %s)\nhint: narrow the selection with --target <action_id>",
			domain.ErrMultipleCommands, strings.Join(ids, ", "))
	}

	obs.Partitioned(part)
	if part.Empty() {
		return result, nil
	}

	if len(part.Trash) > 0 {
		done, err := s.applyTrash(ctx, part.Trash, &result, obs)
		if err != nil || !done {
			return result, err
		}
	}

	if len(part.Commands) == 1 {
		return result, s.applyCommand(ctx, part.Commands[0], req.Timeout, &result, obs)
	}
	return result, nil
}

func (s *Service) applyTrash(ctx context.Context, actions []domain.ActionPlan, result *Result, obs Observer) (bool, error) {
	ok, err := s.Prompter.Confirm(domain.TrashConfirmation.Contract(), "Move the paths above to ~/.Trash")
	if err != nil {
		return false, err
	}
	if !ok {
		result.Cancelled = true
		return false, nil
	}

	startedAt := s.now()
	moved, err := s.Mover.Apply(actions, s.Home)
	if err != nil {
		return false, err
	}
	result.Trash = &moved
	s.log().Info("trash batch applied", map[string]interface{}{
		"moved":           len(moved.Moved),
		"skipped_missing": len(moved.SkippedMissing),
		"errors":          len(moved.Errors),
	})
	s.emit(ctx, s.Events.TrashBatch(startedAt, maxTrashRisk, actions, moved), result)
	obs.TrashApplied(moved)

	if moved.HasErrors() {
		return false, &domain.PartialApplyError{
			Moved:    len(moved.Moved),
			Failures: moved.Errors,
			LogPath:  s.LogPath,
		}
	}
	return true, nil
}

func (s *Service) applyCommand(ctx context.Context, action domain.ActionPlan, timeout time.Duration, result *Result, obs Observer) error {
	spec, ok := security.AllowlistedSpec(action)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCommandNotAllowlisted, action.ID)
	}
	run, _ := action.Command()
	line := cmdline.Format(run.Cmd, run.Args)

	subject := fmt.Sprintf("RUN_CMD %s [%s]: %s", action.ID, action.RiskLevel, line)
	ok, err := s.Prompter.Confirm(spec.Contract(), subject)
	if err != nil {
		return err
	}
	if !ok {
		result.Cancelled = true
		return nil
	}

	startedAt := s.now()
	stop := obs.CommandStarted(action, line)
	out, runErr := s.RunAllowlisted(ctx, action, timeout)
	stop()

	if runErr != nil {
		if errors.Is(runErr, domain.ErrCommandNotAllowlisted) {
			return runErr
		}
		s.emit(ctx, s.Events.CommandAttempt(startedAt, action, &out, runErr, nil), result)
		return s.withLog(fmt.Errorf("external command failed: %s: %w", line, runErr))
	}

	classified := outcome.Classify(action, out)
	s.log().Info("command classified", map[string]interface{}{
		"action":    action.ID,
		"exit_code": out.ExitCode,
		"status":    string(classified.Status),
	})
	s.emit(ctx, s.Events.CommandAttempt(startedAt, action, &out, nil, &classified), result)
	result.Command = &CommandResult{Action: action, Output: out, Classified: classified}

	if classified.IsError() {
		return &domain.ClassifiedError{
			ActionID: action.ID,
			Reason:   classified.Reason,
			Output:   out,
			Repairs:  outcome.SuggestRepairs(action, out),
			LogPath:  s.LogPath,
		}
	}
	return nil
}

// RunAllowlisted spawns action only if it still matches the allowlist
// exactly. Nothing runs otherwise.
func (s *Service) RunAllowlisted(ctx context.Context, action domain.ActionPlan, timeout time.Duration) (domain.CommandOutput, error) {
	entry, ok := security.LookupEntry(action)
	if !ok {
		return domain.CommandOutput{}, fmt.Errorf("%w: %s", domain.ErrCommandNotAllowlisted, action.ID)
	}
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	run, _ := action.Command()
	s.log().Debug("spawning allowlisted command", map[string]interface{}{
		"action":  action.ID,
		"cmdline": cmdline.Format(run.Cmd, run.Args),
		"timeout": timeout.String(),
	})
	return s.Runner.Run(ctx, domain.CommandRequest{
		Cmd:            run.Cmd,
		Args:           run.Args,
		Timeout:        timeout,
		AsInvokingUser: entry.AsInvokingUser,
	})
}

// emit never fails the action; the mutation already happened.
func (s *Service) emit(ctx context.Context, event domain.AuditEvent, result *Result) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Emit(ctx, event); err != nil {
		s.log().Warn("audit emit failed", map[string]interface{}{
			"event_id": event.EventID,
			"error":    err.Error(),
		})
		result.AuditWarnings = append(result.AuditWarnings, fmt.Sprintf("audit log write failed: %v", err))
	}
}

func (s *Service) withLog(err error) error {
	if s.LogPath == "" {
		return err
	}
	return fmt.Errorf("%w\nlog: %s", err, s.LogPath)
}

func (s *Service) log() ports.Logger {
	if s.Logger == nil {
		return logger.Nop{}
	}
	return s.Logger
}
