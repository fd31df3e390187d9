package security

import (
	"testing"

	"github.com/doeshing/macdiet-go/internal/domain"
)

func runPlan(id string, risk domain.RiskLevel, cmd string, args ...string) domain.ActionPlan {
	return domain.ActionPlan{
		ID:        id,
		Title:     id,
		RiskLevel: risk,
		Kind:      domain.RunCmd{Cmd: cmd, Args: args},
	}
}

func TestAllowlistedSpecTokens(t *testing.T) {
	tests := []struct {
		plan    domain.ActionPlan
		confirm string
	}{
		{runPlan(ActionSimctlDeleteUnavailable, domain.RiskR2, "xcrun", "simctl", "delete", "unavailable"), "unavailable"},
		{runPlan(ActionDockerBuilderPrune, domain.RiskR2, "docker", "builder", "prune"), "builder-prune"},
		{runPlan(ActionDockerSystemPrune, domain.RiskR2, "docker", "system", "prune"), "system-prune"},
		{runPlan(ActionDockerStorageDF, domain.RiskR2, "docker", "system", "df"), "df"},
		{runPlan(ActionBrewCleanup, domain.RiskR1, "brew", "cleanup"), "cleanup"},
		{runPlan(ActionNpmCacheClean, domain.RiskR1, "npm", "cache", "clean", "--force"), "npm"},
		{runPlan(ActionYarnCacheClean, domain.RiskR1, "yarn", "cache", "clean"), "yarn"},
		{runPlan(ActionPnpmStorePrune, domain.RiskR1, "pnpm", "store", "prune"), "pnpm"},
		{runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "u+rwX", "/opt/homebrew/Cellar/python@3.13/3.13.2"), "chmod"},
		{runPlan(ActionCellarChown, domain.RiskR3, "chown", "-R", "alice", "/usr/local/Cellar/git/2.44.0", "/opt/homebrew/Cellar/x/1.0"), "chown"},
	}
	for _, tt := range tests {
		t.Run(tt.plan.ID, func(t *testing.T) {
			spec, ok := AllowlistedSpec(tt.plan)
			if !ok {
				t.Fatalf("expected %s to be allowlisted", tt.plan.ID)
			}
			if spec.ConfirmToken != tt.confirm || spec.FinalConfirmToken != "run" {
				t.Fatalf("unexpected tokens %+v", spec)
			}
		})
	}
}

func TestAllowlistedSpecRejectsNearMisses(t *testing.T) {
	tests := []struct {
		name string
		plan domain.ActionPlan
	}{
		{"extra args", runPlan(ActionDockerSystemPrune, domain.RiskR2, "docker", "system", "prune", "-a")},
		{"force flag", runPlan(ActionDockerSystemPrune, domain.RiskR2, "docker", "system", "prune", "-a", "-f")},
		{"missing arg", runPlan(ActionNpmCacheClean, domain.RiskR1, "npm", "cache", "clean")},
		{"wrong risk", runPlan(ActionBrewCleanup, domain.RiskR2, "brew", "cleanup")},
		{"wrong command", runPlan(ActionBrewCleanup, domain.RiskR1, "/opt/homebrew/bin/brew", "cleanup")},
		{"unknown id", runPlan("brew-cleanup", domain.RiskR1, "brew", "cleanup")},
		{"shell wrapper", runPlan(ActionBrewCleanup, domain.RiskR1, "sh", "-c", "brew cleanup")},
		{"shell wrapper args", runPlan(ActionBrewCleanup, domain.RiskR1, "brew", "cleanup; rm -rf ~")},
		{"chmod other mode", runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "777", "/opt/homebrew/Cellar/x")},
		{"chmod no paths", runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "u+rwX")},
		{"chmod outside cellar", runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "u+rwX", "/etc")},
		{"chmod cellar root", runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "u+rwX", "/opt/homebrew/Cellar/")},
		{"chmod traversal", runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "u+rwX", "/opt/homebrew/Cellar/../../../etc")},
		{"chmod mixed paths", runPlan(ActionCellarChmod, domain.RiskR2, "chmod", "-R", "u+rwX", "/opt/homebrew/Cellar/x", "/Users/t")},
		{"chown group spec", runPlan(ActionCellarChown, domain.RiskR3, "chown", "-R", "alice:staff", "/opt/homebrew/Cellar/x")},
		{"chown flag owner", runPlan(ActionCellarChown, domain.RiskR3, "chown", "-R", "-h", "/opt/homebrew/Cellar/x")},
		{"chown at R2", runPlan(ActionCellarChown, domain.RiskR2, "chown", "-R", "alice", "/opt/homebrew/Cellar/x")},
		{"not a run cmd", domain.ActionPlan{ID: ActionBrewCleanup, RiskLevel: domain.RiskR1, Kind: domain.TrashMove{Paths: []string{"~/.npm"}}}},
		{"nil kind", domain.ActionPlan{ID: ActionBrewCleanup, RiskLevel: domain.RiskR1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if spec, ok := AllowlistedSpec(tt.plan); ok {
				t.Fatalf("expected rejection, got %+v", spec)
			}
		})
	}
}

func TestAllowlistEntriesAreUniqueAndComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Entries() {
		if seen[e.ActionID] {
			t.Fatalf("duplicate entry %s", e.ActionID)
		}
		seen[e.ActionID] = true
		if e.Matches == nil || e.Confirm.ConfirmToken == "" || e.Confirm.FinalConfirmToken == "" {
			t.Fatalf("incomplete entry %+v", e)
		}
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(seen))
	}
	if allowlistByID[ActionCellarChown].AsInvokingUser || allowlistByID[ActionCellarChmod].AsInvokingUser {
		t.Fatalf("permission repairs must run with the current credentials")
	}
	if !allowlistByID[ActionBrewCleanup].AsInvokingUser {
		t.Fatalf("brew cleanup must drop to the invoking user")
	}
}

func TestIsSafePOSIXOwner(t *testing.T) {
	tests := map[string]bool{
		"alice":      true,
		"a.b-c_d":    true,
		"User42":     true,
		"root":       true,
		"":           false,
		"-R":         false,
		"alice:adm":  false,
		"al ice":     false,
		"alice;rm":   false,
		"ålice":      false,
		"alice/../x": false,
	}
	for owner, want := range tests {
		if got := IsSafePOSIXOwner(owner); got != want {
			t.Fatalf("IsSafePOSIXOwner(%q) = %v, want %v", owner, got, want)
		}
	}
}
