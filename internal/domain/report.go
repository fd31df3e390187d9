package domain

import "time"

// EvidenceKind tells how a finding was observed.
type EvidenceKind string

const (
	EvidencePath    EvidenceKind = "path"
	EvidenceCommand EvidenceKind = "command"
	EvidenceStat    EvidenceKind = "stat"
)

// Evidence supports a finding.
type Evidence struct {
	Kind   EvidenceKind `json:"kind" yaml:"kind"`
	Value  string       `json:"value" yaml:"value"`
	Masked bool         `json:"masked" yaml:"masked"`
}

// Finding is what the discovery engine reports about one cache.
type Finding struct {
	ID                 string      `json:"id" yaml:"id"`
	Type               string      `json:"type" yaml:"type"`
	Title              string      `json:"title" yaml:"title"`
	EstimatedBytes     uint64      `json:"estimated_bytes" yaml:"estimated_bytes"`
	Confidence         float64     `json:"confidence" yaml:"confidence"`
	RiskLevel          RiskLevel   `json:"risk_level" yaml:"risk_level"`
	Evidence           []Evidence  `json:"evidence" yaml:"evidence"`
	RecommendedActions []ActionRef `json:"recommended_actions" yaml:"recommended_actions"`
}

// OSInfo identifies the host the report was produced on.
type OSInfo struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// ReportSummary aggregates a report.
type ReportSummary struct {
	EstimatedTotalBytes uint64   `json:"estimated_total_bytes" yaml:"estimated_total_bytes"`
	UnobservedBytes     uint64   `json:"unobserved_bytes" yaml:"unobserved_bytes"`
	Notes               []string `json:"notes" yaml:"notes"`
}

// Report is the document the discovery engine hands to fix.
type Report struct {
	SchemaVersion string
	ToolVersion   string
	OS            OSInfo
	GeneratedAt   time.Time
	Summary       ReportSummary
	Findings      []Finding
	Actions       []ActionPlan
}
