package outcome

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
)

// SuggestRepairs proposes permission repairs after a failed `brew cleanup`.
// It returns nothing unless every reported path sits under a Homebrew Cellar.
func SuggestRepairs(action domain.ActionPlan, out domain.CommandOutput) []domain.ActionPlan {
	return suggestRepairs(action, out, os.Getenv)
}

// SuggestRepair returns the first repair, the one to try before escalating.
func SuggestRepair(action domain.ActionPlan, out domain.CommandOutput) (domain.ActionPlan, bool) {
	repairs := SuggestRepairs(action, out)
	if len(repairs) == 0 {
		return domain.ActionPlan{}, false
	}
	return repairs[0], true
}

func suggestRepairs(action domain.ActionPlan, out domain.CommandOutput, getenv func(string) string) []domain.ActionPlan {
	if action.ID != security.ActionBrewCleanup || out.ExitCode == 0 {
		return nil
	}
	if brewRunningAsRoot(out.Stderr) {
		return nil
	}
	paths := PermissionFixPaths(out.Stderr)
	if len(paths) == 0 {
		return nil
	}
	for _, p := range paths {
		if !security.UnderCellarRoot(p) {
			return nil
		}
	}

	repairs := []domain.ActionPlan{chmodRepair(action, paths)}
	if brewOwnershipFailure(out.Stderr) {
		if owner, ok := preferredOwner(getenv); ok {
			repairs = append(repairs, chownRepair(action, owner, paths))
		}
	}
	return repairs
}

func chmodRepair(failed domain.ActionPlan, paths []string) domain.ActionPlan {
	args := append([]string{"-R", "u+rwX"}, paths...)
	return domain.ActionPlan{
		ID:              security.ActionCellarChmod,
		Title:           "Repair Homebrew Cellar permissions (chmod -R u+rwX)",
		RiskLevel:       domain.RiskR2,
		RelatedFindings: append([]string(nil), failed.RelatedFindings...),
		Kind:            domain.RunCmd{Cmd: "chmod", Args: args},
		Notes: []string{
			"Purpose: give your user read/write access to the Cellar paths `brew cleanup` could not clean.",
			"Caveat: files owned by root cannot be changed this way; the chown repair or sudo may be required.",
			"Next: rerun `brew cleanup` after the repair succeeds.",
		},
	}
}

func chownRepair(failed domain.ActionPlan, owner string, paths []string) domain.ActionPlan {
	args := append([]string{"-R", owner}, paths...)
	return domain.ActionPlan{
		ID:              security.ActionCellarChown,
		Title:           fmt.Sprintf("Repair Homebrew Cellar ownership (sudo chown -R %s)", owner),
		RiskLevel:       domain.RiskR3,
		RelatedFindings: append([]string(nil), failed.RelatedFindings...),
		Kind:            domain.RunCmd{Cmd: "chown", Args: args},
		Notes: []string{
			fmt.Sprintf("Purpose: hand the Cellar paths back to %s so Homebrew can manage them.", owner),
			"Caveat: changing ownership usually requires running macdiet with sudo; macdiet never elevates by itself.",
			"Next: rerun `brew cleanup` as your normal user after the repair succeeds.",
		},
	}
}

// preferredOwner picks the user a Cellar should belong to. Candidates are
// SUDO_USER, USER, LOGNAME and the name of HOME; root is used only when no
// other safe candidate exists.
func preferredOwner(getenv func(string) string) (string, bool) {
	var candidates []string
	for _, key := range []string{"SUDO_USER", "USER", "LOGNAME"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			candidates = append(candidates, v)
		}
	}
	if home := strings.TrimSpace(getenv("HOME")); home != "" {
		if base := filepath.Base(filepath.Clean(home)); base != "." && base != string(filepath.Separator) {
			candidates = append(candidates, base)
		}
	}

	rootSeen := false
	for _, c := range candidates {
		if !security.IsSafePOSIXOwner(c) {
			continue
		}
		if c == "root" {
			rootSeen = true
			continue
		}
		return c, true
	}
	if rootSeen {
		return "root", true
	}
	return "", false
}
