package domain

import "time"

// Audit commands and statuses.
const (
	AuditCommandApply  = "fix apply"
	AuditCommandRunCmd = "fix run_cmd"

	AuditStatusOK             = "ok"
	AuditStatusPartialError   = "partial_error"
	AuditStatusOKWithWarnings = "ok_with_warnings"
	AuditStatusError          = "error"
)

// TrashRollbackHint is recorded with every trash batch.
const TrashRollbackHint = "TRASH_MOVE is recoverable via ~/.Trash (move back if needed)."

// AuditEvent is one logged mutation or subprocess attempt. Paths are
// home-masked and command output is truncated before an event is built.
type AuditEvent struct {
	SchemaVersion string          `json:"schema_version"`
	EventID       string          `json:"event_id"`
	ToolVersion   string          `json:"tool_version"`
	Command       string          `json:"command"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Status        string          `json:"status"`
	MaxRisk       string          `json:"max_risk,omitempty"`
	RollbackHint  string          `json:"rollback_hint,omitempty"`
	ActionID      string          `json:"action_id,omitempty"`
	ActionTitle   string          `json:"action_title,omitempty"`
	RiskLevel     string          `json:"risk_level,omitempty"`
	Actions       []AuditAction   `json:"actions,omitempty"`
	Outcome       *ApplyOutcome   `json:"outcome,omitempty"`
	Attempt       *CommandAttempt `json:"attempt,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// AuditAction summarizes one plan of a trash batch.
type AuditAction struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	RiskLevel        string   `json:"risk_level"`
	Kind             string   `json:"kind"`
	Paths            []string `json:"paths,omitempty"`
	RollbackPossible bool     `json:"rollback_possible"`
}

// CommandAttempt is the logged form of one RUN_CMD execution.
type CommandAttempt struct {
	Cmd      string   `json:"cmd"`
	Args     []string `json:"args"`
	ExitCode *int     `json:"exit_code,omitempty"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	Error    string   `json:"error,omitempty"`
}

// AuditRecord is the queryable summary of an event kept in history.
type AuditRecord struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Status    string    `json:"status"`
	ActionID  string    `json:"action_id"`
	RiskLevel string    `json:"risk_level"`
	Summary   string    `json:"summary"`
	Payload   string    `json:"payload"`
}
