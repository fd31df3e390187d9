package domain

import (
	"path/filepath"
	"time"
)

// EffectiveRiskMax returns override when set, otherwise the configured ceiling.
func (c *Config) EffectiveRiskMax(override *RiskLevel) RiskLevel {
	if override != nil {
		return *override
	}
	if !c.Fix.DefaultRiskMax.Valid() {
		return RiskR1
	}
	return c.Fix.DefaultRiskMax
}

// GetCommandTimeout returns the per-command deadline.
func (c *Config) GetCommandTimeout() time.Duration {
	if c.Fix.CommandTimeout <= 0 {
		return DefaultCommandTimeout
	}
	return c.Fix.CommandTimeout
}

// GetMaxTableRows returns how many rows a table may print.
func (c *Config) GetMaxTableRows() int {
	if c.UI.MaxTableRows <= 0 {
		return DefaultMaxTableRows
	}
	return c.UI.MaxTableRows
}

// ShouldMaskHome reports whether paths are rewritten to ~/ in logs and output.
func (c *Config) ShouldMaskHome() bool {
	return c.Privacy.MaskHome
}

// IsAuditEnabled reports whether audit sinks should be opened.
func (c *Config) IsAuditEnabled() bool {
	return c.Audit.Enabled
}

// AuditJSONLPath returns the JSONL audit file, defaulting under home.
func (c *Config) AuditJSONLPath(home string) string {
	if c.Audit.JSONLPath != "" {
		return c.Audit.JSONLPath
	}
	return filepath.Join(home, ConfigDirName, LogsDirName, AuditFileName)
}

// HistoryDBPath returns the SQLite history file, defaulting under home.
func (c *Config) HistoryDBPath(home string) string {
	if c.Audit.HistoryDB != "" {
		return c.Audit.HistoryDB
	}
	return filepath.Join(home, ConfigDirName, HistoryFileName)
}

// GetAuditRotateBytes returns the JSONL rotation threshold.
func (c *Config) GetAuditRotateBytes() int64 {
	if c.Audit.RotateMaxBytes <= 0 {
		return DefaultAuditRotateBytes
	}
	return c.Audit.RotateMaxBytes
}
