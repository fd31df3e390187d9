package domain

// Wire names of the action kinds.
const (
	KindTrashMove        = "TRASH_MOVE"
	KindDelete           = "DELETE"
	KindRunCmd           = "RUN_CMD"
	KindOpenInFinder     = "OPEN_IN_FINDER"
	KindShowInstructions = "SHOW_INSTRUCTIONS"
)

// ActionPlan is one proposed remediation. Plans are never edited after
// creation; repairs are emitted as new plans.
type ActionPlan struct {
	ID                      string
	Title                   string
	RiskLevel               RiskLevel
	EstimatedReclaimedBytes uint64
	RelatedFindings         []string
	Kind                    ActionKind
	Notes                   []string
}

// ActionKind is the closed set of things an ActionPlan can do. The kind alone
// determines which execution path may touch a plan.
type ActionKind interface {
	KindName() string
	isActionKind()
}

// TrashMove moves paths into ~/.Trash.
type TrashMove struct {
	Paths []string
}

// Delete is permanently rejected by validation.
type Delete struct {
	Paths []string
}

// RunCmd runs an external command with an exact argument vector.
type RunCmd struct {
	Cmd  string
	Args []string
}

// OpenInFinder reveals a path for manual inspection.
type OpenInFinder struct {
	Path string
}

// ShowInstructions carries manual steps as markdown.
type ShowInstructions struct {
	Markdown string
}

func (TrashMove) KindName() string        { return KindTrashMove }
func (Delete) KindName() string           { return KindDelete }
func (RunCmd) KindName() string           { return KindRunCmd }
func (OpenInFinder) KindName() string     { return KindOpenInFinder }
func (ShowInstructions) KindName() string { return KindShowInstructions }

func (TrashMove) isActionKind()        {}
func (Delete) isActionKind()           {}
func (RunCmd) isActionKind()           {}
func (OpenInFinder) isActionKind()     {}
func (ShowInstructions) isActionKind() {}

// KindName returns the wire name of the plan's kind, or "" when unset.
func (a ActionPlan) KindName() string {
	if a.Kind == nil {
		return ""
	}
	return a.Kind.KindName()
}

// TrashPaths returns the paths of a TrashMove plan.
func (a ActionPlan) TrashPaths() ([]string, bool) {
	switch k := a.Kind.(type) {
	case TrashMove:
		return k.Paths, true
	case *TrashMove:
		if k == nil {
			return nil, false
		}
		return k.Paths, true
	}
	return nil, false
}

// Command returns the command and arguments of a RunCmd plan.
func (a ActionPlan) Command() (RunCmd, bool) {
	switch k := a.Kind.(type) {
	case RunCmd:
		return k, true
	case *RunCmd:
		if k == nil {
			return RunCmd{}, false
		}
		return *k, true
	}
	return RunCmd{}, false
}

// ActionRef points from a finding to one of its actions.
type ActionRef struct {
	ID string `json:"id" yaml:"id"`
}
