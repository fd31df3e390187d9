package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// PrivateDirectoryPermissions is used for log directories (rwx------)
	PrivateDirectoryPermissions = 0o700
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout constants
const (
	// DefaultCommandTimeout bounds one allowlisted command
	DefaultCommandTimeout = 30 * time.Minute
)

// Limit constants
const (
	// MaxTrashSuffixAttempts bounds the name.macdiet-N probe in ~/.Trash
	MaxTrashSuffixAttempts = 1000
	// MaxLoggedOutputBytes caps stdout/stderr kept in audit events
	MaxLoggedOutputBytes = 64 * 1024
	// DefaultAuditRotateBytes rotates the JSONL audit file
	DefaultAuditRotateBytes = 10 * 1024 * 1024
	// DefaultMaxTableRows is the default number of rows rendered per table
	DefaultMaxTableRows = 20
)

// History constants
const (
	// DefaultHistoryLimit is the default number of audit records to display
	DefaultHistoryLimit = 20
)

// Paths relative to the effective home directory.
const (
	ConfigDirName   = ".config/macdiet"
	ConfigFileName  = "config.yaml"
	LogsDirName     = "logs"
	AuditFileName   = "audit.jsonl"
	HistoryFileName = "history.db"
	TrashDirName    = ".Trash"
	TrashSuffix     = ".macdiet-"
)

// Schema versions
const (
	AuditSchemaVersion = "1.0"
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
