package cmdline

import (
	"strings"
	"testing"
)

func TestFormatLeavesPlainWordsUnquoted(t *testing.T) {
	got := Format("npm", []string{"cache", "clean", "--force"})
	if got != "npm cache clean --force" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestFormatQuotesSpecialWords(t *testing.T) {
	got := Format("chown", []string{"-R", "alice", "/opt/homebrew/Cellar/my app/1.0", "$(id)", ""})
	if !strings.HasPrefix(got, "chown -R alice ") {
		t.Fatalf("unexpected prefix in %q", got)
	}
	if strings.Contains(got, " /opt/homebrew/Cellar/my app/1.0 ") {
		t.Fatalf("path with a space must be quoted in %q", got)
	}
	if strings.Contains(got, " $(id) ") {
		t.Fatalf("command substitution must be quoted in %q", got)
	}
	if !strings.HasSuffix(got, " ''") {
		t.Fatalf("empty word should render as '' in %q", got)
	}
}
