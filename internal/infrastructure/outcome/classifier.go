// Package outcome interprets finished allowlisted commands and proposes
// follow-up repairs. All knowledge of third-party CLI output lives here.
package outcome

import (
	"fmt"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
)

type rule func(action domain.ActionPlan, run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome

// rules override the exit-code baseline per action id.
var rules = map[string]rule{
	security.ActionDockerBuilderPrune: classifyDocker,
	security.ActionDockerSystemPrune:  classifyDocker,
	security.ActionDockerStorageDF:    classifyDocker,
	security.ActionBrewCleanup:        classifyBrewCleanup,
	security.ActionCellarChmod:        classifyCellarChmod,
	security.ActionCellarChown:        classifyCellarChown,
}

// Classify maps a finished command to Ok, OkWithWarnings or Error. It is
// defined for every input and never panics.
func Classify(action domain.ActionPlan, out domain.CommandOutput) domain.ClassifiedOutcome {
	if _, ok := security.AllowlistedSpec(action); !ok {
		return domain.FailFinal(fmt.Sprintf("action %s is not in the execution allowlist; its output was not evaluated", action.ID))
	}
	run, _ := action.Command()
	if r, ok := rules[action.ID]; ok {
		return r(action, run, out)
	}
	return baseline(run, out)
}

func baseline(run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome {
	if out.ExitCode == 0 {
		return domain.Ok()
	}
	return genericFailure(run, out)
}

func genericFailure(run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome {
	return domain.Fail(fmt.Sprintf("command failed (exit_code=%d): %s", out.ExitCode, cmdline.Format(run.Cmd, run.Args)))
}

func classifyDocker(_ domain.ActionPlan, run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome {
	if out.ExitCode == 0 {
		return domain.Ok()
	}
	stderr := out.Stderr
	switch {
	case strings.Contains(stderr, "Cannot connect to the Docker daemon") || strings.Contains(stderr, "Is the docker daemon running"):
		return domain.Fail(fmt.Sprintf(
			"`%s` could not reach the Docker daemon (exit_code=%d). Start Docker Desktop, confirm `docker system df` works, then retry.",
			cmdline.Format(run.Cmd, run.Args), out.ExitCode))
	case strings.Contains(stderr, "permission denied") || strings.Contains(stderr, permissionDeniedMarker):
		return domain.Fail(fmt.Sprintf(
			"`%s` was denied access to the Docker socket (exit_code=%d). Check Docker Desktop settings and your docker group or socket permissions.",
			cmdline.Format(run.Cmd, run.Args), out.ExitCode))
	}
	return genericFailure(run, out)
}

func classifyBrewCleanup(_ domain.ActionPlan, run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome {
	if out.ExitCode == 0 {
		return domain.Ok()
	}
	if brewRunningAsRoot(out.Stderr) {
		return domain.FailFinal("`brew cleanup` refused to run as root. Homebrew must not be run with sudo; rerun macdiet as your normal user.")
	}
	if out.ExitCode == 1 && !brewHasHardError(out.Stdout, out.Stderr) {
		return domain.Warn("`brew cleanup` exited with code 1 but reported only warnings; check the Warning lines in stderr.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "`%s` failed (exit_code=%d)", cmdline.Format(run.Cmd, run.Args), out.ExitCode)
	if brewPermissionIssue(out.Stderr) {
		b.WriteString(" (possible permission issue)")
	}
	if line := firstErrorLine(out.Stderr, out.Stdout); line != "" {
		b.WriteString(": ")
		b.WriteString(line)
	}
	if paths := PermissionFixPaths(out.Stderr); len(paths) > 0 {
		b.WriteString(". Paths needing repair: ")
		b.WriteString(strings.Join(paths, ", "))
	}
	b.WriteString(". Hint: run `brew doctor` and follow its instructions to fix ownership and permissions.")
	return domain.Fail(b.String())
}

func classifyCellarChmod(_ domain.ActionPlan, run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome {
	if out.ExitCode == 0 {
		return domain.Ok()
	}
	if strings.Contains(out.Stderr, notPermittedMarker) || strings.Contains(out.Stderr, permissionDeniedMarker) {
		return domain.Fail(fmt.Sprintf(
			"`%s` could not change permissions (exit_code=%d); the files are probably owned by another user. Raise the maximum risk to R3 and run the %s repair, or run with elevated privileges.",
			cmdline.Format(run.Cmd, run.Args), out.ExitCode, security.ActionCellarChown))
	}
	return genericFailure(run, out)
}

func classifyCellarChown(_ domain.ActionPlan, run domain.RunCmd, out domain.CommandOutput) domain.ClassifiedOutcome {
	if out.ExitCode == 0 {
		return domain.Ok()
	}
	if strings.Contains(out.Stderr, notPermittedMarker) || strings.Contains(out.Stderr, permissionDeniedMarker) {
		return domain.Fail(fmt.Sprintf(
			"`%s` could not change ownership (exit_code=%d). Changing ownership usually requires sudo, and macdiet never elevates on its own; rerun with `sudo macdiet fix apply`.",
			cmdline.Format(run.Cmd, run.Args), out.ExitCode))
	}
	return genericFailure(run, out)
}
