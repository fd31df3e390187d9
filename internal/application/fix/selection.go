package fix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
)

// maxTrashRisk is the highest risk a TRASH_MOVE may carry and still be applied.
const maxTrashRisk = domain.RiskR1

// targetSample caps how many known ids an unknown-target error lists.
const targetSample = 12

// Skipped is an action fix apply will not execute, with the reason shown to
// the user.
type Skipped struct {
	Action domain.ActionPlan
	Reason string
}

// Partition splits selected actions by what fix apply may do with them.
type Partition struct {
	Trash    []domain.ActionPlan
	Commands []domain.ActionPlan
	Skipped  []Skipped
}

// Empty reports whether nothing is executable.
func (p Partition) Empty() bool {
	return len(p.Trash) == 0 && len(p.Commands) == 0
}

// TrashBytes sums the estimated bytes of the trash batch.
func (p Partition) TrashBytes() uint64 {
	var total uint64
	for _, a := range p.Trash {
		total += a.EstimatedReclaimedBytes
	}
	return total
}

// Select keeps the actions of report with risk <= maxRisk that match one of
// targets by action id or related finding id. No targets selects all. The
// result is ordered by risk, then estimated bytes descending.
func Select(report domain.Report, maxRisk domain.RiskLevel, targets []string) ([]domain.ActionPlan, error) {
	targetActions := map[string]bool{}
	targetFindings := map[string]bool{}
	if len(targets) > 0 {
		findingIDs := map[string]bool{}
		for _, f := range report.Findings {
			findingIDs[f.ID] = true
		}
		// Actions may name findings the report does not carry.
		for _, a := range report.Actions {
			for _, f := range a.RelatedFindings {
				findingIDs[f] = true
			}
		}
		actionIDs := map[string]bool{}
		for _, a := range report.Actions {
			actionIDs[a.ID] = true
		}

		var unknown []string
		for _, t := range targets {
			known := false
			if findingIDs[t] {
				targetFindings[t] = true
				known = true
			}
			if actionIDs[t] {
				targetActions[t] = true
				known = true
			}
			if !known {
				unknown = append(unknown, t)
			}
		}
		if len(unknown) > 0 {
			return nil, unknownTargetError(report, unknown)
		}
	}

	var selected []domain.ActionPlan
	for _, a := range report.Actions {
		if a.RiskLevel > maxRisk {
			continue
		}
		if len(targets) > 0 && !targetActions[a.ID] && !relatesTo(a, targetFindings) {
			continue
		}
		selected = append(selected, a)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].RiskLevel != selected[j].RiskLevel {
			return selected[i].RiskLevel < selected[j].RiskLevel
		}
		return selected[i].EstimatedReclaimedBytes > selected[j].EstimatedReclaimedBytes
	})
	return selected, nil
}

func relatesTo(a domain.ActionPlan, findings map[string]bool) bool {
	for _, f := range a.RelatedFindings {
		if findings[f] {
			return true
		}
	}
	return false
}

func unknownTargetError(report domain.Report, unknown []string) error {
	var findings, actions []string
	for _, f := range report.Findings {
		if len(findings) == targetSample {
			break
		}
		findings = append(findings, f.ID)
	}
	for _, a := range report.Actions {
		if len(actions) == targetSample {
			break
		}
		actions = append(actions, a.ID)
	}
	return fmt.Errorf("%w: %s\nhint: choose a finding id: %s\nhint: or an action id: %s",
		domain.ErrUnknownTarget,
		strings.Join(unknown, ", "),
		strings.Join(findings, ", "),
		strings.Join(actions, ", "))
}

// PartitionActions sorts actions into the trash batch, allowlisted commands
// and everything fix apply leaves alone.
func PartitionActions(actions []domain.ActionPlan) Partition {
	var p Partition
	for _, a := range actions {
		switch a.KindName() {
		case domain.KindTrashMove:
			if a.RiskLevel <= maxTrashRisk {
				p.Trash = append(p.Trash, a)
				continue
			}
			p.Skipped = append(p.Skipped, Skipped{
				Action: a,
				Reason: fmt.Sprintf("TRASH_MOVE above %s is not applied automatically (current: %s)", maxTrashRisk, a.RiskLevel),
			})
		case domain.KindRunCmd:
			if _, ok := security.AllowlistedSpec(a); ok {
				p.Commands = append(p.Commands, a)
				continue
			}
			run, _ := a.Command()
			p.Skipped = append(p.Skipped, Skipped{
				Action: a,
				Reason: "not in execution allowlist (suggestion only): " + cmdline.Format(run.Cmd, run.Args),
			})
		default:
			p.Skipped = append(p.Skipped, Skipped{
				Action: a,
				Reason: fmt.Sprintf("not executed by fix apply (%s)", a.KindName()),
			})
		}
	}

	byBytes := func(list []domain.ActionPlan) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].EstimatedReclaimedBytes != list[j].EstimatedReclaimedBytes {
				return list[i].EstimatedReclaimedBytes > list[j].EstimatedReclaimedBytes
			}
			return list[i].ID < list[j].ID
		})
	}
	byBytes(p.Trash)
	byBytes(p.Commands)
	sort.SliceStable(p.Skipped, func(i, j int) bool {
		a, b := p.Skipped[i].Action, p.Skipped[j].Action
		if a.RiskLevel != b.RiskLevel {
			return a.RiskLevel < b.RiskLevel
		}
		return a.ID < b.ID
	})
	return p
}
