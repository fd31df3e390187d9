// Package plan reads and writes the action documents fix consumes: either a
// full scan report or a bare list under "actions:". JSON input is accepted
// since it is valid YAML.
package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// StdinPath selects standard input.
const StdinPath = "-"

type wireKind struct {
	Kind     string   `yaml:"kind"`
	Paths    []string `yaml:"paths,omitempty"`
	Cmd      string   `yaml:"cmd,omitempty"`
	Args     []string `yaml:"args,omitempty"`
	Path     string   `yaml:"path,omitempty"`
	Markdown string   `yaml:"markdown,omitempty"`
}

type wireAction struct {
	ID                      string           `yaml:"id"`
	Title                   string           `yaml:"title"`
	RiskLevel               domain.RiskLevel `yaml:"risk_level"`
	EstimatedReclaimedBytes uint64           `yaml:"estimated_reclaimed_bytes"`
	RelatedFindings         []string         `yaml:"related_findings"`
	Kind                    wireKind         `yaml:"kind"`
	Notes                   []string         `yaml:"notes"`
}

type wireReport struct {
	SchemaVersion string               `yaml:"schema_version,omitempty"`
	ToolVersion   string               `yaml:"tool_version,omitempty"`
	OS            domain.OSInfo        `yaml:"os,omitempty"`
	GeneratedAt   string               `yaml:"generated_at,omitempty"`
	Summary       domain.ReportSummary `yaml:"summary,omitempty"`
	Findings      []domain.Finding     `yaml:"findings,omitempty"`
	Actions       []wireAction         `yaml:"actions"`
}

// Load reads a plan document from path, or from stdin when path is "-".
func Load(path string, stdin io.Reader) (domain.Report, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Report{}, domain.InvalidArgs(errors.New("--plan is required (path or - for stdin)"))
	}
	if path == StdinPath {
		return Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a report or an actions-only document.
func Decode(r io.Reader) (domain.Report, error) {
	var wire wireReport
	if err := yaml.NewDecoder(r).Decode(&wire); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Report{}, domain.InvalidArgs(errors.New("plan document is empty"))
		}
		return domain.Report{}, domain.InvalidArgs(fmt.Errorf("parse plan: %w", err))
	}

	report := domain.Report{
		SchemaVersion: wire.SchemaVersion,
		ToolVersion:   wire.ToolVersion,
		OS:            wire.OS,
		Summary:       wire.Summary,
		Findings:      wire.Findings,
	}
	if wire.GeneratedAt != "" {
		if t, err := time.Parse(time.RFC3339, wire.GeneratedAt); err == nil {
			report.GeneratedAt = t
		}
	}

	seen := make(map[string]bool, len(wire.Actions))
	for i, wa := range wire.Actions {
		action, err := wa.toDomain()
		if err != nil {
			return domain.Report{}, domain.InvalidArgs(fmt.Errorf("actions[%d]: %w", i, err))
		}
		if seen[action.ID] {
			return domain.Report{}, domain.InvalidArgs(fmt.Errorf("actions[%d]: duplicate id %q", i, action.ID))
		}
		seen[action.ID] = true
		report.Actions = append(report.Actions, action)
	}
	return report, nil
}

// Encode writes actions as an actions-only document that Decode accepts.
func Encode(w io.Writer, actions []domain.ActionPlan) error {
	doc := wireReport{Actions: make([]wireAction, 0, len(actions))}
	for _, a := range actions {
		wa, err := fromDomain(a)
		if err != nil {
			return err
		}
		doc.Actions = append(doc.Actions, wa)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile encodes actions to path with private permissions.
func WriteFile(path string, actions []domain.ActionPlan) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	if err := Encode(f, actions); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (wa wireAction) toDomain() (domain.ActionPlan, error) {
	if strings.TrimSpace(wa.ID) == "" {
		return domain.ActionPlan{}, errors.New("missing id")
	}
	kind, err := wa.Kind.toDomain()
	if err != nil {
		return domain.ActionPlan{}, fmt.Errorf("%s: %w", wa.ID, err)
	}
	return domain.ActionPlan{
		ID:                      wa.ID,
		Title:                   wa.Title,
		RiskLevel:               wa.RiskLevel,
		EstimatedReclaimedBytes: wa.EstimatedReclaimedBytes,
		RelatedFindings:         wa.RelatedFindings,
		Kind:                    kind,
		Notes:                   wa.Notes,
	}, nil
}

func (k wireKind) toDomain() (domain.ActionKind, error) {
	switch k.Kind {
	case domain.KindTrashMove:
		return domain.TrashMove{Paths: k.Paths}, nil
	case domain.KindDelete:
		return domain.Delete{Paths: k.Paths}, nil
	case domain.KindRunCmd:
		if k.Cmd == "" {
			return nil, errors.New("RUN_CMD without cmd")
		}
		return domain.RunCmd{Cmd: k.Cmd, Args: k.Args}, nil
	case domain.KindOpenInFinder:
		return domain.OpenInFinder{Path: k.Path}, nil
	case domain.KindShowInstructions:
		return domain.ShowInstructions{Markdown: k.Markdown}, nil
	case "":
		return nil, errors.New("missing kind")
	}
	return nil, fmt.Errorf("unknown kind %q", k.Kind)
}

func fromDomain(a domain.ActionPlan) (wireAction, error) {
	wa := wireAction{
		ID:                      a.ID,
		Title:                   a.Title,
		RiskLevel:               a.RiskLevel,
		EstimatedReclaimedBytes: a.EstimatedReclaimedBytes,
		RelatedFindings:         a.RelatedFindings,
		Notes:                   a.Notes,
	}
	switch k := a.Kind.(type) {
	case domain.TrashMove:
		wa.Kind = wireKind{Kind: domain.KindTrashMove, Paths: k.Paths}
	case domain.Delete:
		wa.Kind = wireKind{Kind: domain.KindDelete, Paths: k.Paths}
	case domain.RunCmd:
		wa.Kind = wireKind{Kind: domain.KindRunCmd, Cmd: k.Cmd, Args: k.Args}
	case domain.OpenInFinder:
		wa.Kind = wireKind{Kind: domain.KindOpenInFinder, Path: k.Path}
	case domain.ShowInstructions:
		wa.Kind = wireKind{Kind: domain.KindShowInstructions, Markdown: k.Markdown}
	default:
		return wireAction{}, fmt.Errorf("action %s: unsupported kind %T", a.ID, a.Kind)
	}
	return wa, nil
}
