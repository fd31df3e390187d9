package security

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// trashExactTargets are single-purpose cache directories that may be
// trashed as a whole. Relative to home.
var trashExactTargets = []string{
	"Library/Developer/Xcode/DerivedData",
	"Library/Developer/Shared/Documentation/DocSets",
	"Library/Developer/Xcode/iOS Device Logs",
	"Library/Caches/Homebrew",
	".cargo/registry",
	".cargo/git",
	".gradle/caches",
	".npm",
	"Library/Caches/Yarn",
	"Library/pnpm/store",
	".pnpm-store",
}

// trashPrefixRoots may only have their children trashed, never themselves.
var trashPrefixRoots = []string{
	"Library/Developer/Xcode/Archives",
	"Library/Developer/Xcode/iOS DeviceSupport",
	"Library/Developer/CoreSimulator/Devices",
}

// TrashExactTargets returns the home-relative directories accepted as-is.
func TrashExactTargets() []string {
	return append([]string(nil), trashExactTargets...)
}

// TrashPrefixRoots returns the home-relative roots whose children are accepted.
func TrashPrefixRoots() []string {
	return append([]string(nil), trashPrefixRoots...)
}

// ExpandTilde expands "~" and "~/..." against home. Other input is returned
// trimmed and otherwise untouched.
func ExpandTilde(path, home string) string {
	p := strings.TrimSpace(path)
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

// ValidateTrashTarget returns the absolute, cleaned path if it may be moved
// to the trash.
func ValidateTrashTarget(path, home string) (string, error) {
	expanded := ExpandTilde(path, home)
	if !filepath.IsAbs(expanded) {
		return "", invalidPath(path, "path must be absolute or start with ~/")
	}
	resolved := filepath.Clean(expanded)
	if resolved == string(filepath.Separator) {
		return "", invalidPath(path, "refusing to trash the filesystem root")
	}

	homeDir := filepath.Clean(home)
	if !filepath.IsAbs(homeDir) {
		return "", invalidPath(path, fmt.Sprintf("home directory %q is not absolute", home))
	}
	if !within(resolved, homeDir) {
		return "", invalidPath(path, "path must be under the home directory")
	}

	for _, rel := range trashExactTargets {
		if resolved == filepath.Join(homeDir, rel) {
			return resolved, nil
		}
	}
	for _, rel := range trashPrefixRoots {
		root := filepath.Join(homeDir, rel)
		if resolved != root && within(resolved, root) {
			return resolved, nil
		}
	}
	return "", &domain.PathError{
		Path:   path,
		Reason: "not in TRASH_MOVE allowlist",
		Err:    domain.ErrNotAllowlisted,
	}
}

// Validate checks every TRASH_MOVE path in actions and fails on the first
// invalid one. DELETE plans always fail.
func Validate(actions []domain.ActionPlan, home string) error {
	for _, action := range actions {
		if err := validateAction(action, home); err != nil {
			return fmt.Errorf("action %s: %w", action.ID, err)
		}
	}
	return nil
}

func validateAction(action domain.ActionPlan, home string) error {
	switch kind := action.Kind.(type) {
	case domain.TrashMove:
		return validatePaths(kind.Paths, home)
	case *domain.TrashMove:
		if kind == nil {
			return nil
		}
		return validatePaths(kind.Paths, home)
	case domain.Delete:
		return deleteForbidden(kind.Paths)
	case *domain.Delete:
		if kind == nil {
			return deleteForbidden(nil)
		}
		return deleteForbidden(kind.Paths)
	default:
		return nil
	}
}

func deleteForbidden(paths []string) error {
	return &domain.PathError{
		Path:   strings.Join(paths, ", "),
		Reason: "DELETE is not permitted; use TRASH_MOVE",
		Err:    domain.ErrDeleteForbidden,
	}
}

func validatePaths(paths []string, home string) error {
	for _, p := range paths {
		if _, err := ValidateTrashTarget(p, home); err != nil {
			return err
		}
	}
	return nil
}

// within reports whether path equals root or sits below it, comparing whole
// path components.
func within(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func invalidPath(path, reason string) error {
	return &domain.PathError{Path: path, Reason: reason}
}
