package audit

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// Builder turns engine results into audit events: paths masked relative to
// home, output truncated, ids and timestamps filled in.
type Builder struct {
	ToolVersion string
	Home        string
	MaskHome    bool
	Now         func() time.Time
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

func (b Builder) mask(path string) string {
	if !b.MaskHome {
		return path
	}
	return MaskHome(path, b.Home)
}

func (b Builder) base(command, status string, startedAt time.Time) domain.AuditEvent {
	return domain.AuditEvent{
		SchemaVersion: domain.AuditSchemaVersion,
		EventID:       uuid.NewString(),
		ToolVersion:   b.ToolVersion,
		Command:       command,
		StartedAt:     startedAt.UTC(),
		FinishedAt:    b.now(),
		Status:        status,
	}
}

// TrashBatch records one applied trash batch.
func (b Builder) TrashBatch(startedAt time.Time, maxRisk domain.RiskLevel, actions []domain.ActionPlan, outcome domain.ApplyOutcome) domain.AuditEvent {
	status := domain.AuditStatusOK
	if outcome.HasErrors() {
		status = domain.AuditStatusPartialError
	}
	event := b.base(domain.AuditCommandApply, status, startedAt)
	event.MaxRisk = maxRisk.String()
	event.RollbackHint = domain.TrashRollbackHint

	for _, a := range actions {
		entry := domain.AuditAction{
			ID:        a.ID,
			Title:     a.Title,
			RiskLevel: a.RiskLevel.String(),
			Kind:      a.KindName(),
		}
		if paths, ok := a.TrashPaths(); ok {
			entry.RollbackPossible = true
			for _, p := range paths {
				entry.Paths = append(entry.Paths, b.mask(p))
			}
		}
		event.Actions = append(event.Actions, entry)
	}

	masked := domain.ApplyOutcome{}
	for _, m := range outcome.Moved {
		masked.Moved = append(masked.Moved, domain.MovedPath{From: b.mask(m.From), To: b.mask(m.To)})
	}
	for _, p := range outcome.SkippedMissing {
		masked.SkippedMissing = append(masked.SkippedMissing, b.mask(p))
	}
	for _, f := range outcome.Errors {
		masked.Errors = append(masked.Errors, domain.PathFailure{Path: b.mask(f.Path), Error: b.maskText(f.Error)})
	}
	event.Outcome = &masked
	return event
}

// CommandAttempt records one RUN_CMD execution. out is nil when the process
// never produced a result; classified is nil when runErr is set.
func (b Builder) CommandAttempt(startedAt time.Time, action domain.ActionPlan, out *domain.CommandOutput, runErr error, classified *domain.ClassifiedOutcome) domain.AuditEvent {
	status := domain.AuditStatusError
	reason := ""
	if runErr == nil && classified != nil {
		status = string(classified.Status)
		reason = classified.Reason
	}
	event := b.base(domain.AuditCommandRunCmd, status, startedAt)
	event.ActionID = action.ID
	event.ActionTitle = action.Title
	event.RiskLevel = action.RiskLevel.String()
	event.Reason = b.maskText(reason)

	run, _ := action.Command()
	attempt := &domain.CommandAttempt{Cmd: run.Cmd}
	for _, arg := range run.Args {
		attempt.Args = append(attempt.Args, b.mask(arg))
	}
	if out != nil {
		if runErr == nil {
			code := out.ExitCode
			attempt.ExitCode = &code
		}
		attempt.Stdout = Truncate(b.maskText(out.Stdout), domain.MaxLoggedOutputBytes)
		attempt.Stderr = Truncate(b.maskText(out.Stderr), domain.MaxLoggedOutputBytes)
	}
	if runErr != nil {
		attempt.Error = b.maskText(runErr.Error())
	}
	event.Attempt = attempt
	return event
}

func (b Builder) maskText(s string) string {
	if !b.MaskHome || b.Home == "" || s == "" {
		return s
	}
	home := filepath.Clean(b.Home)
	if home == string(filepath.Separator) {
		return s
	}
	s = strings.ReplaceAll(s, home+string(filepath.Separator), "~"+string(filepath.Separator))
	return s
}

// MaskHome rewrites home to "~" and paths below it to "~/rel". Other paths
// are returned unchanged.
func MaskHome(path, home string) string {
	if home == "" {
		return path
	}
	p := filepath.Clean(path)
	h := filepath.Clean(home)
	if p == h {
		return "~"
	}
	rel, err := filepath.Rel(h, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || !filepath.IsAbs(path) {
		return path
	}
	return "~" + string(filepath.Separator) + rel
}

// Truncate caps s at max bytes without splitting a UTF-8 sequence and notes
// the original size.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s\n...(truncated, total=%d bytes)", s[:cut], len(s))
}
