package security

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/doeshing/macdiet-go/internal/domain"
)

const testHome = "/Users/t"

func trashPlan(paths ...string) domain.ActionPlan {
	return domain.ActionPlan{
		ID:        "trash-test",
		Title:     "trash test",
		RiskLevel: domain.RiskR1,
		Kind:      domain.TrashMove{Paths: paths},
	}
}

func TestValidateTrashTargetAcceptsExactTargets(t *testing.T) {
	for _, rel := range TrashExactTargets() {
		t.Run(rel, func(t *testing.T) {
			got, err := ValidateTrashTarget("~/"+rel, testHome)
			if err != nil {
				t.Fatalf("ValidateTrashTarget error: %v", err)
			}
			if want := filepath.Join(testHome, rel); got != want {
				t.Fatalf("got %s, want %s", got, want)
			}
			if err := Validate([]domain.ActionPlan{trashPlan(filepath.Join(testHome, rel))}, testHome); err != nil {
				t.Fatalf("Validate error: %v", err)
			}
		})
	}
}

func TestValidateTrashTargetPrefixRootsNeedChild(t *testing.T) {
	for _, rel := range TrashPrefixRoots() {
		t.Run(rel, func(t *testing.T) {
			root := "~/" + rel
			err := Validate([]domain.ActionPlan{trashPlan(root)}, testHome)
			if !errors.Is(err, domain.ErrNotAllowlisted) {
				t.Fatalf("expected root itself to be rejected as not allowlisted, got %v", err)
			}
			if err := Validate([]domain.ActionPlan{trashPlan(root + "/child")}, testHome); err != nil {
				t.Fatalf("expected child to be accepted: %v", err)
			}
		})
	}
}

func TestValidateTrashTargetRejectsOutsideHome(t *testing.T) {
	tests := []string{
		"/etc",
		"/",
		"/Users/other/Library/Developer/Xcode/DerivedData",
		"/Users/tomato/.npm",
		"/Users/t/../other/.npm",
		"~/Library/Developer/Xcode/Archives/../../../../../etc",
		"/private/var/folders",
	}
	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			_, err := ValidateTrashTarget(p, testHome)
			if !errors.Is(err, domain.ErrInvalidPath) {
				t.Fatalf("expected ErrInvalidPath for %s, got %v", p, err)
			}
			if errors.Is(err, domain.ErrNotAllowlisted) {
				t.Fatalf("outside-home path %s must fail before allowlist lookup", p)
			}
		})
	}
}

func TestValidateTrashTargetRejectsRelativeAndUnlisted(t *testing.T) {
	tests := []struct {
		path        string
		allowlisted bool
	}{
		{path: "Library/Caches/Homebrew"},
		{path: "~other/.npm"},
		{path: "$HOME/.npm"},
		{path: "~/Downloads", allowlisted: true},
		{path: "~", allowlisted: true},
		{path: "~/Library/Developer/Xcode", allowlisted: true},
		{path: "~/Library/Developer/Xcode/DerivedData/Foo", allowlisted: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := ValidateTrashTarget(tt.path, testHome)
			if !errors.Is(err, domain.ErrInvalidPath) {
				t.Fatalf("expected ErrInvalidPath, got %v", err)
			}
			if tt.allowlisted != errors.Is(err, domain.ErrNotAllowlisted) {
				t.Fatalf("ErrNotAllowlisted mismatch for %s: %v", tt.path, err)
			}
		})
	}
}

func TestValidateTrashTargetTrimsAndCleans(t *testing.T) {
	got, err := ValidateTrashTarget("  ~/Library/Developer/Xcode/Archives/2024-01-01/./App.xcarchive  ", testHome)
	if err != nil {
		t.Fatalf("ValidateTrashTarget error: %v", err)
	}
	want := "/Users/t/Library/Developer/Xcode/Archives/2024-01-01/App.xcarchive"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestValidateFailsClosedOnFirstInvalidPath(t *testing.T) {
	actions := []domain.ActionPlan{
		trashPlan("~/Library/Developer/Xcode/DerivedData"),
		trashPlan("~/.npm", "/etc"),
		trashPlan("~/.cargo/registry"),
	}
	err := Validate(actions, testHome)
	if !errors.Is(err, domain.ErrInvalidPath) {
		t.Fatalf("expected batch to fail, got %v", err)
	}
}

func TestValidateKinds(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.ActionKind
		wantErr error
	}{
		{name: "run cmd", kind: domain.RunCmd{Cmd: "rm", Args: []string{"-rf", "/"}}},
		{name: "open in finder", kind: domain.OpenInFinder{Path: "/etc"}},
		{name: "instructions", kind: domain.ShowInstructions{Markdown: "do it"}},
		{name: "delete", kind: domain.Delete{Paths: []string{"~/.npm"}}, wantErr: domain.ErrDeleteForbidden},
		{name: "delete pointer", kind: &domain.Delete{Paths: []string{"~/Library/Caches/Homebrew"}}, wantErr: domain.ErrDeleteForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]domain.ActionPlan{{ID: tt.name, Kind: tt.kind}}, testHome)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, domain.ErrInvalidPath) {
				t.Fatalf("expected %v wrapped as invalid path, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDeleteNamesPaths(t *testing.T) {
	err := Validate([]domain.ActionPlan{{
		ID:   "npm-delete",
		Kind: domain.Delete{Paths: []string{"~/.npm", "~/Library/Caches/Homebrew"}},
	}}, testHome)
	want := "action npm-delete: DELETE is not permitted; use TRASH_MOVE: ~/.npm, ~/Library/Caches/Homebrew"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}
