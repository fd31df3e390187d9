package fix

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/audit"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
)

const testHome = "/Users/t"

type stubMover struct {
	calls   int
	got     []domain.ActionPlan
	outcome domain.ApplyOutcome
	err     error
}

func (m *stubMover) Apply(actions []domain.ActionPlan, home string) (domain.ApplyOutcome, error) {
	m.calls++
	m.got = actions
	return m.outcome, m.err
}

type stubRunner struct {
	calls []domain.CommandRequest
	out   domain.CommandOutput
	err   error
}

func (r *stubRunner) Run(_ context.Context, req domain.CommandRequest) (domain.CommandOutput, error) {
	r.calls = append(r.calls, req)
	return r.out, r.err
}

// stubPrompter answers every step with its expected token until accept runs
// out, then declines.
type stubPrompter struct {
	accept   int
	subjects []string
}

func (p *stubPrompter) Confirm(contract domain.ConfirmationContract, subject string) (bool, error) {
	p.subjects = append(p.subjects, subject)
	if p.accept == 0 {
		return false, nil
	}
	p.accept--
	var answers []string
	for _, step := range contract.Steps() {
		answers = append(answers, step.Token)
	}
	return contract.Satisfied(answers), nil
}

func (p *stubPrompter) Enabled() bool { return true }

type recordingSink struct {
	events []domain.AuditEvent
	err    error
}

func (s *recordingSink) Emit(_ context.Context, e domain.AuditEvent) error {
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func trashAction(id string, risk domain.RiskLevel, bytes uint64, findings ...string) domain.ActionPlan {
	return domain.ActionPlan{
		ID:                      id,
		Title:                   "Trash " + id,
		RiskLevel:               risk,
		EstimatedReclaimedBytes: bytes,
		RelatedFindings:         findings,
		Kind:                    domain.TrashMove{Paths: []string{"~/Library/Developer/Xcode/DerivedData"}},
	}
}

func brewCleanup() domain.ActionPlan {
	return domain.ActionPlan{
		ID:              security.ActionBrewCleanup,
		Title:           "Homebrew cache cleanup",
		RiskLevel:       domain.RiskR1,
		RelatedFindings: []string{"homebrew-cache"},
		Kind:            domain.RunCmd{Cmd: "brew", Args: []string{"cleanup"}},
	}
}

func npmClean() domain.ActionPlan {
	return domain.ActionPlan{
		ID:        security.ActionNpmCacheClean,
		RiskLevel: domain.RiskR1,
		Kind:      domain.RunCmd{Cmd: "npm", Args: []string{"cache", "clean", "--force"}},
	}
}

func newService(m *stubMover, r *stubRunner, p *stubPrompter, sink *recordingSink) *Service {
	return &Service{
		Mover:    m,
		Runner:   r,
		Prompter: p,
		Audit:    sink,
		Events:   audit.Builder{ToolVersion: "test", Home: testHome, MaskHome: true},
		Home:     testHome,
		LogPath:  "~/.config/macdiet/logs/audit.jsonl",
		Now:      func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func ids(actions []domain.ActionPlan) []string {
	var out []string
	for _, a := range actions {
		out = append(out, a.ID)
	}
	return out
}

func TestSelectFiltersAndOrders(t *testing.T) {
	report := domain.Report{
		Findings: []domain.Finding{{ID: "xcode"}, {ID: "homebrew-cache"}},
		Actions: []domain.ActionPlan{
			trashAction("small", domain.RiskR1, 10, "xcode"),
			trashAction("big", domain.RiskR1, 1000, "xcode"),
			trashAction("r0", domain.RiskR0, 1),
			trashAction("r2", domain.RiskR2, 5000),
			brewCleanup(),
		},
	}

	got, err := Select(report, domain.RiskR1, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if diff := cmp.Diff([]string{"r0", "big", "small", security.ActionBrewCleanup}, ids(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	got, err = Select(report, domain.RiskR3, []string{"xcode", security.ActionBrewCleanup})
	if err != nil {
		t.Fatalf("Select targets: %v", err)
	}
	if diff := cmp.Diff([]string{"big", "small", security.ActionBrewCleanup}, ids(got)); diff != "" {
		t.Fatalf("target mismatch (-want +got):\n%s", diff)
	}

	_, err = Select(report, domain.RiskR1, []string{"nope"})
	if !errors.Is(err, domain.ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
	if !strings.Contains(err.Error(), "nope") || !strings.Contains(err.Error(), "homebrew-cache") {
		t.Fatalf("error should list the unknown and the known ids: %v", err)
	}
	if domain.ExitCode(err) != domain.ExitInvalidArgs {
		t.Fatalf("unknown target should exit 2")
	}
}

func TestPartitionActions(t *testing.T) {
	rogue := domain.ActionPlan{ID: "rogue", RiskLevel: domain.RiskR1, Kind: domain.RunCmd{Cmd: "rm", Args: []string{"-rf", "/tmp/x y"}}}
	finder := domain.ActionPlan{ID: "finder", RiskLevel: domain.RiskR0, Kind: domain.OpenInFinder{Path: "~/Library"}}
	part := PartitionActions([]domain.ActionPlan{
		trashAction("b", domain.RiskR1, 5),
		trashAction("a", domain.RiskR1, 5),
		trashAction("huge", domain.RiskR1, 500),
		trashAction("risky", domain.RiskR2, 1),
		brewCleanup(),
		rogue,
		finder,
	})

	if diff := cmp.Diff([]string{"huge", "a", "b"}, ids(part.Trash)); diff != "" {
		t.Fatalf("trash mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{security.ActionBrewCleanup}, ids(part.Commands)); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	reasons := map[string]string{}
	var skippedIDs []string
	for _, s := range part.Skipped {
		reasons[s.Action.ID] = s.Reason
		skippedIDs = append(skippedIDs, s.Action.ID)
	}
	if diff := cmp.Diff([]string{"finder", "rogue", "risky"}, skippedIDs); diff != "" {
		t.Fatalf("skipped order mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(reasons["risky"], "above R1") {
		t.Fatalf("unexpected reason %q", reasons["risky"])
	}
	if !strings.Contains(reasons["rogue"], "rm -rf '/tmp/x y'") {
		t.Fatalf("expected quoted command line, got %q", reasons["rogue"])
	}
	if !strings.Contains(reasons["finder"], domain.KindOpenInFinder) {
		t.Fatalf("unexpected reason %q", reasons["finder"])
	}
	if part.TrashBytes() != 510 {
		t.Fatalf("unexpected trash bytes %d", part.TrashBytes())
	}
}

func TestPlanRejectsInvalidPlans(t *testing.T) {
	svc := newService(&stubMover{}, &stubRunner{}, &stubPrompter{}, &recordingSink{})
	del := domain.ActionPlan{ID: "del", RiskLevel: domain.RiskR1, Kind: domain.Delete{Paths: []string{"~/.npm"}}}
	_, err := svc.Plan(Request{Report: domain.Report{Actions: []domain.ActionPlan{del}}, MaxRisk: domain.RiskR1})
	if !errors.Is(err, domain.ErrDeleteForbidden) {
		t.Fatalf("expected ErrDeleteForbidden, got %v", err)
	}

	outside := trashAction("outside", domain.RiskR1, 1)
	outside.Kind = domain.TrashMove{Paths: []string{"~/Documents"}}
	_, err = svc.Plan(Request{Report: domain.Report{Actions: []domain.ActionPlan{outside}}, MaxRisk: domain.RiskR1})
	if !errors.Is(err, domain.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}

	_, err = svc.Plan(Request{MaxRisk: domain.RiskLevel(9)})
	if !errors.Is(err, domain.ErrRiskCeiling) {
		t.Fatalf("expected ErrRiskCeiling, got %v", err)
	}
}

func TestApplyRefusesMoreThanOneCommand(t *testing.T) {
	mover, runner, prompter := &stubMover{}, &stubRunner{}, &stubPrompter{accept: 10}
	svc := newService(mover, runner, prompter, &recordingSink{})
	_, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{brewCleanup(), npmClean(), trashAction("t", domain.RiskR1, 1)}},
		MaxRisk: domain.RiskR1,
	}, nil)
	if !errors.Is(err, domain.ErrMultipleCommands) {
		t.Fatalf("expected ErrMultipleCommands, got %v", err)
	}
	if len(prompter.subjects) != 0 || mover.calls != 0 || len(runner.calls) != 0 {
		t.Fatalf("nothing may happen before the one-command check")
	}
}

func TestApplyTrashThenCommand(t *testing.T) {
	mover := &stubMover{outcome: domain.ApplyOutcome{Moved: []domain.MovedPath{{
		From: testHome + "/Library/Developer/Xcode/DerivedData",
		To:   testHome + "/.Trash/DerivedData",
	}}}}
	runner := &stubRunner{out: domain.CommandOutput{ExitCode: 0, Stdout: "Removing: ..."}}
	prompter := &stubPrompter{accept: 2}
	sink := &recordingSink{}
	svc := newService(mover, runner, prompter, sink)

	result, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{trashAction("dd", domain.RiskR1, 100), brewCleanup()}},
		MaxRisk: domain.RiskR1,
		Timeout: time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Cancelled || result.Trash == nil || result.Command == nil {
		t.Fatalf("unexpected result %+v", result)
	}
	if mover.calls != 1 || len(mover.got) != 1 {
		t.Fatalf("expected one trash batch, got %d calls", mover.calls)
	}
	want := []domain.CommandRequest{{Cmd: "brew", Args: []string{"cleanup"}, Timeout: time.Minute, AsInvokingUser: true}}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Fatalf("runner mismatch (-want +got):\n%s", diff)
	}
	if len(sink.events) != 2 || sink.events[0].Command != domain.AuditCommandApply || sink.events[1].Command != domain.AuditCommandRunCmd {
		t.Fatalf("expected apply and run_cmd events, got %+v", sink.events)
	}
	if sink.events[0].Outcome.Moved[0].From != "~/Library/Developer/Xcode/DerivedData" {
		t.Fatalf("expected masked audit path")
	}
	if !strings.Contains(prompter.subjects[1], "brew cleanup") {
		t.Fatalf("command prompt should show the command line: %q", prompter.subjects[1])
	}
}

func TestApplyDeclinedTrashRunsNothing(t *testing.T) {
	mover, runner := &stubMover{}, &stubRunner{}
	sink := &recordingSink{}
	svc := newService(mover, runner, &stubPrompter{accept: 0}, sink)
	result, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{trashAction("dd", domain.RiskR1, 1), brewCleanup()}},
		MaxRisk: domain.RiskR1,
	}, nil)
	if err != nil {
		t.Fatalf("declining is not an error: %v", err)
	}
	if !result.Cancelled || mover.calls != 0 || len(runner.calls) != 0 || len(sink.events) != 0 {
		t.Fatalf("declined batch must not touch anything: %+v", result)
	}
}

func TestApplyPartialTrashFailureStopsBeforeCommand(t *testing.T) {
	mover := &stubMover{outcome: domain.ApplyOutcome{Errors: []domain.PathFailure{{Path: "/Users/t/.npm", Error: "busy"}}}}
	runner := &stubRunner{}
	sink := &recordingSink{}
	svc := newService(mover, runner, &stubPrompter{accept: 5}, sink)
	_, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{trashAction("dd", domain.RiskR1, 1), brewCleanup()}},
		MaxRisk: domain.RiskR1,
	}, nil)
	var partial *domain.PartialApplyError
	if !errors.As(err, &partial) || len(partial.Failures) != 1 {
		t.Fatalf("expected PartialApplyError, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("command must not run after a failed batch")
	}
	if len(sink.events) != 1 || sink.events[0].Status != domain.AuditStatusPartialError {
		t.Fatalf("expected partial_error audit event, got %+v", sink.events)
	}
}

func TestApplyClassifiedErrorCarriesRepairs(t *testing.T) {
	runner := &stubRunner{out: domain.CommandOutput{
		ExitCode: 1,
		Stderr: "Error: Could not cleanup old kegs! Fix your permissions on:\n" +
			"  /opt/homebrew/Cellar/python@3.13/3.13.2\n",
	}}
	sink := &recordingSink{}
	svc := newService(&stubMover{}, runner, &stubPrompter{accept: 1}, sink)
	result, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{brewCleanup()}},
		MaxRisk: domain.RiskR1,
	}, nil)
	var classified *domain.ClassifiedError
	if !errors.As(err, &classified) {
		t.Fatalf("expected ClassifiedError, got %v", err)
	}
	if domain.ExitCode(err) != domain.ExitExternalCommand {
		t.Fatalf("expected exit 20, got %d", domain.ExitCode(err))
	}
	if len(classified.Repairs) == 0 || classified.Repairs[0].ID != security.ActionCellarChmod {
		t.Fatalf("expected chmod repair, got %+v", classified.Repairs)
	}
	for _, repair := range classified.Repairs {
		if _, ok := security.AllowlistedSpec(repair); !ok {
			t.Fatalf("repair %s must be allowlisted", repair.ID)
		}
	}
	if result.Command == nil || !result.Command.Classified.IsError() {
		t.Fatalf("result should carry the classified outcome")
	}
	if len(sink.events) != 1 || sink.events[0].Status != domain.AuditStatusError {
		t.Fatalf("expected error audit event, got %+v", sink.events)
	}
}

func TestApplyLaunchFailureIsAudited(t *testing.T) {
	launch := &domain.LaunchError{Cmdline: "brew cleanup", Err: context.DeadlineExceeded}
	runner := &stubRunner{err: launch}
	sink := &recordingSink{}
	svc := newService(&stubMover{}, runner, &stubPrompter{accept: 1}, sink)
	_, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{brewCleanup()}},
		MaxRisk: domain.RiskR1,
	}, nil)
	if !errors.Is(err, context.DeadlineExceeded) || domain.ExitCode(err) != domain.ExitExternalCommand {
		t.Fatalf("expected launch failure with exit 20, got %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Attempt.ExitCode != nil {
		t.Fatalf("launch failure must be audited without exit code: %+v", sink.events)
	}
}

func TestApplyAuditFailureIsAWarning(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	svc := newService(&stubMover{}, &stubRunner{}, &stubPrompter{accept: 1}, sink)
	result, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{brewCleanup()}},
		MaxRisk: domain.RiskR1,
	}, nil)
	if err != nil {
		t.Fatalf("audit failure must not fail the action: %v", err)
	}
	if len(result.AuditWarnings) != 1 || !strings.Contains(result.AuditWarnings[0], "disk full") {
		t.Fatalf("expected audit warning, got %+v", result.AuditWarnings)
	}
}

func TestRunAllowlistedRechecksBeforeSpawning(t *testing.T) {
	runner := &stubRunner{}
	svc := newService(&stubMover{}, runner, &stubPrompter{}, &recordingSink{})

	tampered := brewCleanup()
	tampered.Kind = domain.RunCmd{Cmd: "brew", Args: []string{"cleanup", "--prune=all"}}
	_, err := svc.RunAllowlisted(context.Background(), tampered, time.Second)
	if !errors.Is(err, domain.ErrCommandNotAllowlisted) {
		t.Fatalf("expected ErrCommandNotAllowlisted, got %v", err)
	}
	escalated := brewCleanup()
	escalated.RiskLevel = domain.RiskR2
	if _, err := svc.RunAllowlisted(context.Background(), escalated, time.Second); !errors.Is(err, domain.ErrCommandNotAllowlisted) {
		t.Fatalf("risk mismatch must be rejected, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("runner must not be called for rejected actions")
	}

	if _, err := svc.RunAllowlisted(context.Background(), brewCleanup(), 0); err != nil {
		t.Fatalf("RunAllowlisted: %v", err)
	}
	if runner.calls[0].Timeout != domain.DefaultCommandTimeout {
		t.Fatalf("zero timeout should fall back to default, got %s", runner.calls[0].Timeout)
	}
}

type countingObserver struct {
	partitioned, applied, started, stopped int
}

func (o *countingObserver) Partitioned(Partition)            { o.partitioned++ }
func (o *countingObserver) TrashApplied(domain.ApplyOutcome) { o.applied++ }
func (o *countingObserver) CommandStarted(domain.ActionPlan, string) func() {
	o.started++
	return func() { o.stopped++ }
}

func TestApplyNotifiesObserver(t *testing.T) {
	obs := &countingObserver{}
	svc := newService(&stubMover{}, &stubRunner{}, &stubPrompter{accept: 2}, &recordingSink{})
	_, err := svc.Apply(context.Background(), Request{
		Report:  domain.Report{Actions: []domain.ActionPlan{trashAction("dd", domain.RiskR1, 1), brewCleanup()}},
		MaxRisk: domain.RiskR1,
	}, obs)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if *obs != (countingObserver{partitioned: 1, applied: 1, started: 1, stopped: 1}) {
		t.Fatalf("unexpected observer calls %+v", *obs)
	}
}
