package security

import (
	"path/filepath"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// Action ids of the allowlisted commands.
const (
	ActionSimctlDeleteUnavailable = "coresimulator-simctl-delete-unavailable"
	ActionDockerBuilderPrune      = "docker-builder-prune"
	ActionDockerSystemPrune       = "docker-system-prune"
	ActionDockerStorageDF         = "docker-storage-df"
	ActionBrewCleanup             = "homebrew-cache-cleanup"
	ActionNpmCacheClean           = "npm-cache-cleanup"
	ActionYarnCacheClean          = "yarn-cache-cleanup"
	ActionPnpmStorePrune          = "pnpm-store-prune"
	ActionCellarChmod             = "homebrew-cellar-permissions-chmod"
	ActionCellarChown             = "homebrew-cellar-permissions-chown"
)

// FinalConfirmToken is the second word every allowlisted command asks for.
const FinalConfirmToken = "run"

// CellarRoots are the only places a permission repair may touch.
var CellarRoots = []string{"/opt/homebrew/Cellar/", "/usr/local/Cellar/"}

// ArgsMatcher decides whether an argument vector is acceptable for an entry.
type ArgsMatcher func(args []string) bool

// AllowlistEntry is one permitted command.
type AllowlistEntry struct {
	ActionID string
	Risk     domain.RiskLevel
	Cmd      string
	// Usage is the argument shape for display.
	Usage   string
	Matches ArgsMatcher
	Confirm domain.ConfirmationSpec
	// AsInvokingUser runs the command as the sudo caller rather than root.
	AsInvokingUser bool
}

var allowlist = []AllowlistEntry{
	userCommand(ActionSimctlDeleteUnavailable, domain.RiskR2, "xcrun", "unavailable", "simctl", "delete", "unavailable"),
	userCommand(ActionDockerBuilderPrune, domain.RiskR2, "docker", "builder-prune", "builder", "prune"),
	userCommand(ActionDockerSystemPrune, domain.RiskR2, "docker", "system-prune", "system", "prune"),
	userCommand(ActionDockerStorageDF, domain.RiskR2, "docker", "df", "system", "df"),
	userCommand(ActionBrewCleanup, domain.RiskR1, "brew", "cleanup", "cleanup"),
	userCommand(ActionNpmCacheClean, domain.RiskR1, "npm", "npm", "cache", "clean", "--force"),
	userCommand(ActionYarnCacheClean, domain.RiskR1, "yarn", "yarn", "cache", "clean"),
	userCommand(ActionPnpmStorePrune, domain.RiskR1, "pnpm", "pnpm", "store", "prune"),
	{
		ActionID: ActionCellarChmod,
		Risk:     domain.RiskR2,
		Cmd:      "chmod",
		Usage:    "-R u+rwX <Cellar paths...>",
		Matches:  matchCellarChmod,
		Confirm:  domain.ConfirmationSpec{ConfirmToken: "chmod", FinalConfirmToken: FinalConfirmToken},
	},
	{
		ActionID: ActionCellarChown,
		Risk:     domain.RiskR3,
		Cmd:      "chown",
		Usage:    "-R <owner> <Cellar paths...>",
		Matches:  matchCellarChown,
		Confirm:  domain.ConfirmationSpec{ConfirmToken: "chown", FinalConfirmToken: FinalConfirmToken},
	},
}

var allowlistByID = indexAllowlist(allowlist)

func userCommand(id string, risk domain.RiskLevel, cmd, token string, args ...string) AllowlistEntry {
	return AllowlistEntry{
		ActionID:       id,
		Risk:           risk,
		Cmd:            cmd,
		Usage:          strings.Join(args, " "),
		Matches:        exactArgs(args...),
		Confirm:        domain.ConfirmationSpec{ConfirmToken: token, FinalConfirmToken: FinalConfirmToken},
		AsInvokingUser: true,
	}
}

func indexAllowlist(entries []AllowlistEntry) map[string]AllowlistEntry {
	out := make(map[string]AllowlistEntry, len(entries))
	for _, e := range entries {
		out[e.ActionID] = e
	}
	return out
}

// Entries returns the registry in display order.
func Entries() []AllowlistEntry {
	return append([]AllowlistEntry(nil), allowlist...)
}

// LookupEntry returns the registry entry matching action exactly.
func LookupEntry(action domain.ActionPlan) (AllowlistEntry, bool) {
	run, ok := action.Command()
	if !ok {
		return AllowlistEntry{}, false
	}
	entry, ok := allowlistByID[action.ID]
	if !ok {
		return AllowlistEntry{}, false
	}
	if action.RiskLevel != entry.Risk || run.Cmd != entry.Cmd {
		return AllowlistEntry{}, false
	}
	if !entry.Matches(run.Args) {
		return AllowlistEntry{}, false
	}
	return entry, true
}

// AllowlistedSpec returns the confirmation tokens for action if its
// (id, risk, command, args) match a registered entry exactly.
func AllowlistedSpec(action domain.ActionPlan) (domain.ConfirmationSpec, bool) {
	entry, ok := LookupEntry(action)
	if !ok {
		return domain.ConfirmationSpec{}, false
	}
	return entry.Confirm, true
}

func exactArgs(want ...string) ArgsMatcher {
	return func(args []string) bool {
		if len(args) != len(want) {
			return false
		}
		for i := range want {
			if args[i] != want[i] {
				return false
			}
		}
		return true
	}
}

func matchCellarChmod(args []string) bool {
	if len(args) < 3 || args[0] != "-R" || args[1] != "u+rwX" {
		return false
	}
	return allUnderCellar(args[2:])
}

func matchCellarChown(args []string) bool {
	if len(args) < 3 || args[0] != "-R" || !IsSafePOSIXOwner(args[1]) {
		return false
	}
	return allUnderCellar(args[2:])
}

func allUnderCellar(paths []string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if !UnderCellarRoot(p) {
			return false
		}
	}
	return true
}

// UnderCellarRoot reports whether p is a clean path strictly below one of
// the Homebrew Cellar roots.
func UnderCellarRoot(p string) bool {
	if p == "" || filepath.Clean(p) != p {
		return false
	}
	for _, root := range CellarRoots {
		if strings.HasPrefix(p, root) && len(p) > len(root) {
			return true
		}
	}
	return false
}

// IsSafePOSIXOwner accepts a bare user name: no leading '-', no ':' group
// part, only ASCII letters, digits, '_', '-' and '.'.
func IsSafePOSIXOwner(owner string) bool {
	if owner == "" || strings.HasPrefix(owner, "-") {
		return false
	}
	for _, c := range owner {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}
