package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/doeshing/macdiet-go/internal/application/fix"
	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/cli/commands"
	"github.com/doeshing/macdiet-go/internal/infrastructure/plan"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
)

// selectionFlags are shared by fix plan and fix apply.
type selectionFlags struct {
	planPath string
	risk     string
	targets  []string
	json     bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.planPath, "plan", "", "Plan or report file (JSON or YAML), '-' for stdin")
	cmd.Flags().StringVar(&f.risk, "risk", "", "Maximum risk level R0-R3 (default from config)")
	cmd.Flags().StringArrayVar(&f.targets, "target", nil, "Finding or action id to include (repeatable)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Emit JSON")
}

func (f *selectionFlags) riskOverride() (*domain.RiskLevel, error) {
	if f.risk == "" {
		return nil, nil
	}
	level, err := domain.ParseRiskLevel(f.risk)
	if err != nil {
		return nil, domain.InvalidArgs(err)
	}
	return &level, nil
}

func (f *selectionFlags) request(cmd *cobra.Command, cfg domain.Config) (fix.Request, error) {
	if f.planPath == "" {
		return fix.Request{}, domain.InvalidArgs(errors.New(errPlanRequired))
	}
	override, err := f.riskOverride()
	if err != nil {
		return fix.Request{}, err
	}
	report, err := plan.Load(f.planPath, cmd.InOrStdin())
	if err != nil {
		return fix.Request{}, err
	}
	return fix.Request{
		Report:  report,
		MaxRisk: cfg.EffectiveRiskMax(override),
		Targets: f.targets,
		Timeout: cfg.GetCommandTimeout(),
	}, nil
}

const (
	errPlanRequired   = "--plan is required"
	errNotInteractive = "fix apply requires an interactive terminal (stdin and stdout must be a TTY)"
	errApplyJSON      = "--json is not supported by fix apply; use fix plan --json"
)

// isInteractive reports whether both streams are terminals.
var isInteractive = func(in io.Reader, out io.Writer) bool {
	return isTerminal(in) && isTerminal(out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newFixCommand(resolve commands.ContainerFunc) *cobra.Command {
	fixCmd := &cobra.Command{
		Use:   "fix",
		Short: "Preview or apply cleanup actions from a plan",
	}
	fixCmd.AddCommand(
		newFixPlanCommand(resolve),
		newFixApplyCommand(resolve),
	)
	return fixCmd
}

func newFixPlanCommand(resolve commands.ContainerFunc) *cobra.Command {
	var flags selectionFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what fix apply would do (dry-run)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := resolve(cmd.Context())
			if err != nil {
				return err
			}
			req, err := flags.request(cmd, container.Config)
			if err != nil {
				return err
			}
			res, err := container.FixService.Plan(req)
			if err != nil {
				return err
			}
			if flags.json {
				return writePlanJSON(cmd.OutOrStdout(), res)
			}
			NewRenderer(cmd.OutOrStdout(), container.Config, container.Home).RenderPlan(res)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newFixApplyCommand(resolve commands.ContainerFunc) *cobra.Command {
	var (
		flags      selectionFlags
		timeout    time.Duration
		repairsOut string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the selected actions after typed confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.json {
				return domain.InvalidArgs(errors.New(errApplyJSON))
			}
			if !isInteractive(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return domain.InvalidArgs(errors.New(errNotInteractive))
			}
			container, err := resolve(cmd.Context())
			if err != nil {
				return err
			}
			req, err := flags.request(cmd, container.Config)
			if err != nil {
				return err
			}
			if timeout > 0 {
				req.Timeout = timeout
			}

			out := cmd.OutOrStdout()
			render := NewRenderer(out, container.Config, container.Home)
			container.FixService.Prompter = NewPrompter(cmd.InOrStdin(), out)
			obs := &applyObserver{render: render, spinnerTo: cmd.ErrOrStderr()}

			fmt.Fprintf(out, "Max risk: %s\n", req.MaxRisk)
			res, err := container.FixService.Apply(cmd.Context(), req, obs)
			for _, w := range res.AuditWarnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			if res.Command != nil {
				render.RenderCommandResult(*res.Command)
			}

			var classified *domain.ClassifiedError
			if errors.As(err, &classified) {
				render.RenderRepairs(classified.Repairs)
				if repairsOut != "" && len(classified.Repairs) > 0 {
					if werr := plan.WriteFile(repairsOut, classified.Repairs); werr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not write repairs: %v\n", werr)
					} else {
						fmt.Fprintf(out, "\nWrote repair plan to %s\n", repairsOut)
						fmt.Fprintf(out, "Review it, then run: macdiet fix apply --plan %s --risk %s\n",
							cmdline.Quote(repairsOut), maxRisk(classified.Repairs))
					}
				}
				return err
			}
			if err != nil {
				return err
			}
			if res.Cancelled {
				return nil
			}
			if res.Plan.Partition.Empty() {
				fmt.Fprintf(out, "\nNothing to apply at max risk %s.\n", req.MaxRisk)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-command timeout (default from config)")
	cmd.Flags().StringVar(&repairsOut, "repairs-out", "", "Write suggested repair actions to this plan file")
	return cmd
}

func maxRisk(actions []domain.ActionPlan) domain.RiskLevel {
	level := domain.RiskR0
	for _, a := range actions {
		if a.RiskLevel > level {
			level = a.RiskLevel
		}
	}
	return level
}

type planJSON struct {
	MaxRisk    string        `json:"max_risk"`
	Selected   int           `json:"selected"`
	TrashBytes uint64        `json:"trash_estimated_bytes"`
	Trash      []actionJSON  `json:"trash"`
	Commands   []actionJSON  `json:"commands"`
	Skipped    []skippedJSON `json:"skipped"`
	Executable bool          `json:"executable"`
}

type actionJSON struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	RiskLevel      string   `json:"risk_level"`
	EstimatedBytes uint64   `json:"estimated_reclaimed_bytes"`
	Paths          []string `json:"paths,omitempty"`
	Cmdline        string   `json:"cmdline,omitempty"`
	ConfirmTokens  []string `json:"confirm_tokens,omitempty"`
}

type skippedJSON struct {
	ID        string `json:"id"`
	RiskLevel string `json:"risk_level"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
}

func writePlanJSON(w io.Writer, res fix.PlanResult) error {
	doc := planJSON{
		MaxRisk:    res.MaxRisk.String(),
		Selected:   len(res.Selected),
		TrashBytes: res.Partition.TrashBytes(),
		Trash:      []actionJSON{},
		Commands:   []actionJSON{},
		Skipped:    []skippedJSON{},
		Executable: !res.Partition.Empty(),
	}
	for _, a := range res.Partition.Trash {
		paths, _ := a.TrashPaths()
		doc.Trash = append(doc.Trash, actionJSON{
			ID:             a.ID,
			Title:          a.Title,
			RiskLevel:      a.RiskLevel.String(),
			EstimatedBytes: a.EstimatedReclaimedBytes,
			Paths:          paths,
		})
	}
	for _, a := range res.Partition.Commands {
		run, _ := a.Command()
		entry := actionJSON{
			ID:             a.ID,
			Title:          a.Title,
			RiskLevel:      a.RiskLevel.String(),
			EstimatedBytes: a.EstimatedReclaimedBytes,
			Cmdline:        cmdline.Format(run.Cmd, run.Args),
		}
		if spec, ok := security.AllowlistedSpec(a); ok {
			entry.ConfirmTokens = []string{spec.ConfirmToken, spec.FinalConfirmToken}
		}
		doc.Commands = append(doc.Commands, entry)
	}
	for _, s := range res.Partition.Skipped {
		doc.Skipped = append(doc.Skipped, skippedJSON{
			ID:        s.Action.ID,
			RiskLevel: s.Action.RiskLevel.String(),
			Kind:      s.Action.KindName(),
			Reason:    s.Reason,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
