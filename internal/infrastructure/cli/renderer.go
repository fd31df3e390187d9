package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/macdiet-go/internal/application/fix"
	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/audit"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
)

// outputTailLines bounds how much command output is echoed after a run.
const outputTailLines = 20

// Renderer prints fix results in a plain, ASCII-friendly format.
type Renderer struct {
	out      io.Writer
	home     string
	maskHome bool
	maxRows  int
}

// NewRenderer builds a renderer honoring the ui and privacy settings.
func NewRenderer(out io.Writer, cfg domain.Config, home string) *Renderer {
	return &Renderer{
		out:      out,
		home:     home,
		maskHome: cfg.ShouldMaskHome(),
		maxRows:  cfg.GetMaxTableRows(),
	}
}

func (r *Renderer) path(p string) string {
	if r.maskHome {
		return audit.MaskHome(p, r.home)
	}
	return p
}

// RenderPlan prints the dry-run view of a selection.
func (r *Renderer) RenderPlan(res fix.PlanResult) {
	fmt.Fprintf(r.out, "Max risk: %s (%d action(s) selected)\n", res.MaxRisk, len(res.Selected))
	r.RenderPartition(res.Partition)
	if res.Partition.Empty() {
		fmt.Fprintf(r.out, "\nNothing to apply at max risk %s.\n", res.MaxRisk)
	}
}

// RenderPartition prints the trash batch, commands and skipped actions.
func (r *Renderer) RenderPartition(p fix.Partition) {
	if len(p.Trash) > 0 {
		fmt.Fprintf(r.out, "\nTrash (%d action(s), ~%s):\n", len(p.Trash), humanize.Bytes(p.TrashBytes()))
		r.rows(len(p.Trash), func(i int) {
			a := p.Trash[i]
			fmt.Fprintf(r.out, "  [%s] %s  %s (%s)\n", a.RiskLevel, a.ID, a.Title, humanize.Bytes(a.EstimatedReclaimedBytes))
			paths, _ := a.TrashPaths()
			for _, path := range paths {
				fmt.Fprintf(r.out, "      - %s\n", r.path(path))
			}
		})
	}

	if len(p.Commands) > 0 {
		fmt.Fprintf(r.out, "\nCommands (%d):\n", len(p.Commands))
		r.rows(len(p.Commands), func(i int) {
			a := p.Commands[i]
			run, _ := a.Command()
			fmt.Fprintf(r.out, "  [%s] %s  %s\n", a.RiskLevel, a.ID, cmdline.Format(run.Cmd, run.Args))
			if spec, ok := security.AllowlistedSpec(a); ok {
				fmt.Fprintf(r.out, "      confirm: '%s' then '%s'\n", spec.ConfirmToken, spec.FinalConfirmToken)
			}
		})
	}

	if len(p.Skipped) > 0 {
		fmt.Fprintf(r.out, "\nSkipped (%d):\n", len(p.Skipped))
		r.rows(len(p.Skipped), func(i int) {
			s := p.Skipped[i]
			fmt.Fprintf(r.out, "  [%s] %s: %s\n", s.Action.RiskLevel, s.Action.ID, s.Reason)
		})
	}
}

func (r *Renderer) rows(n int, row func(int)) {
	limit := n
	if r.maxRows > 0 && limit > r.maxRows {
		limit = r.maxRows
	}
	for i := 0; i < limit; i++ {
		row(i)
	}
	if limit < n {
		fmt.Fprintf(r.out, "  ... and %d more\n", n-limit)
	}
}

// RenderTrashOutcome prints what a trash batch did.
func (r *Renderer) RenderTrashOutcome(o domain.ApplyOutcome) {
	fmt.Fprintf(r.out, "\nMoved %d path(s) to ~/.Trash\n", len(o.Moved))
	for _, m := range o.Moved {
		fmt.Fprintf(r.out, "  %s -> %s\n", r.path(m.From), r.path(m.To))
	}
	if len(o.SkippedMissing) > 0 {
		fmt.Fprintf(r.out, "Skipped %d missing path(s):\n", len(o.SkippedMissing))
		for _, p := range o.SkippedMissing {
			fmt.Fprintf(r.out, "  %s\n", r.path(p))
		}
	}
	if len(o.Errors) > 0 {
		fmt.Fprintf(r.out, "Failed %d path(s):\n", len(o.Errors))
		for _, f := range o.Errors {
			fmt.Fprintf(r.out, "  %s: %s\n", r.path(f.Path), f.Error)
		}
	}
	if len(o.Moved) > 0 {
		fmt.Fprintln(r.out, domain.TrashRollbackHint)
	}
}

// RenderCommandResult prints the classified outcome and the tail of the
// command output.
func (r *Renderer) RenderCommandResult(res fix.CommandResult) {
	fmt.Fprintf(r.out, "\n%s: %s (exit code %d)\n", res.Action.ID, res.Classified.Status, res.Output.ExitCode)
	if res.Classified.Reason != "" {
		fmt.Fprintf(r.out, "  %s\n", res.Classified.Reason)
	}
	if out := tail(res.Output.Stdout, outputTailLines); out != "" {
		fmt.Fprintf(r.out, "\nstdout:\n%s\n", out)
	}
	if out := tail(res.Output.Stderr, outputTailLines); out != "" {
		fmt.Fprintf(r.out, "\nstderr:\n%s\n", out)
	}
}

// RenderRepairs prints follow-up command plans.
func (r *Renderer) RenderRepairs(repairs []domain.ActionPlan) {
	if len(repairs) == 0 {
		return
	}
	fmt.Fprintln(r.out, "\nSuggested repairs:")
	for _, a := range repairs {
		run, _ := a.Command()
		fmt.Fprintf(r.out, "  [%s] %s  %s\n", a.RiskLevel, a.ID, cmdline.Format(run.Cmd, run.Args))
		for _, note := range a.Notes {
			fmt.Fprintf(r.out, "      %s\n", note)
		}
	}
}

func tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return fmt.Sprintf("... (%d lines omitted)\n%s", len(lines)-n, strings.Join(lines[len(lines)-n:], "\n"))
}

// applyObserver renders progress of fix apply and spins while a command runs.
type applyObserver struct {
	render    *Renderer
	spinnerTo io.Writer
}

func (o *applyObserver) Partitioned(p fix.Partition) {
	o.render.RenderPartition(p)
}

func (o *applyObserver) TrashApplied(outcome domain.ApplyOutcome) {
	o.render.RenderTrashOutcome(outcome)
}

func (o *applyObserver) CommandStarted(action domain.ActionPlan, line string) func() {
	fmt.Fprintf(o.render.out, "\nRunning: %s\n", line)
	if o.spinnerTo == nil {
		return func() {}
	}
	spinner := NewSpinner(o.spinnerTo, action.ID)
	spinner.Start()
	return spinner.Stop
}

var _ fix.Observer = (*applyObserver)(nil)
