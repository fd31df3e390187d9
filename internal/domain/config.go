package domain

import "time"

// Config mirrors ~/.config/macdiet/config.yaml after environment overrides.
type Config struct {
	UI      UISettings      `yaml:"ui"`
	Scan    ScanSettings    `yaml:"scan"`
	Fix     FixSettings     `yaml:"fix"`
	Privacy PrivacySettings `yaml:"privacy"`
	Report  ReportSettings  `yaml:"report"`
	Audit   AuditSettings   `yaml:"audit"`
	// Path is where the configuration was read from. Not serialized.
	Path string `yaml:"-"`
}

// UISettings controls terminal rendering.
type UISettings struct {
	Color        bool `yaml:"color"`
	MaxTableRows int  `yaml:"max_table_rows"`
}

// ScanSettings is passed through to the discovery engine.
type ScanSettings struct {
	DefaultScope string   `yaml:"default_scope"`
	Exclude      []string `yaml:"exclude"`
}

// FixSettings bounds what fix will run.
type FixSettings struct {
	DefaultRiskMax RiskLevel     `yaml:"default_risk_max"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// PrivacySettings controls what leaves the process in logs and output.
type PrivacySettings struct {
	MaskHome bool `yaml:"mask_home"`
}

// ReportSettings controls report rendering.
type ReportSettings struct {
	IncludeEvidence bool `yaml:"include_evidence"`
}

// AuditSettings locates the audit sinks.
type AuditSettings struct {
	Enabled        bool   `yaml:"enabled"`
	JSONLPath      string `yaml:"jsonl_path"`
	RotateMaxBytes int64  `yaml:"rotate_max_bytes"`
	HistoryDB      string `yaml:"history_db"`
}
