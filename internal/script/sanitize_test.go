package script

import (
	"strings"
	"testing"
)

func TestSanitizeRemovesStageDirections(t *testing.T) {
	in := "NARRATOR: Welcome home! [warm tone] This kitchen (freshly renovated) shines."
	out := Sanitize(in)

	if strings.Contains(out, "[warm tone]") {
		t.Fatalf("bracket direction survived: %q", out)
	}
	if strings.Contains(out, "(freshly renovated)") {
		t.Fatalf("parenthetical survived: %q", out)
	}
	if strings.Contains(out, "NARRATOR:") {
		t.Fatalf("speaker label survived: %q", out)
	}
	if !strings.Contains(out, "Welcome home!") {
		t.Fatalf("spoken text lost: %q", out)
	}
}

func TestSanitizeRemovesMarkdownAndSceneMarkers(t *testing.T) {
	in := "Scene 1: The exterior\n**Stunning** curb appeal.\n---\nScene 2:\nStep inside."
	out := Sanitize(in)

	if strings.Contains(out, "**") {
		t.Fatalf("bold markers survived: %q", out)
	}
	if strings.Contains(strings.ToLower(out), "scene 1") {
		t.Fatalf("scene marker survived: %q", out)
	}
	if strings.Contains(out, "---") {
		t.Fatalf("divider survived: %q", out)
	}
	if !strings.Contains(out, "Stunning curb appeal.") {
		t.Fatalf("spoken text mangled: %q", out)
	}
}

func TestSanitizeCollapsesBlankLines(t *testing.T) {
	in := "First line.\n\n\n\n\nSecond line."
	out := Sanitize(in)

	if out != "First line.\n\nSecond line." {
		t.Fatalf("unexpected collapse result: %q", out)
	}
}

func TestSanitizeKeepsTwoBlankLines(t *testing.T) {
	in := "First line.\n\n\nSecond line."
	if got := Sanitize(in); got != in {
		t.Fatalf("two blank lines must survive, got %q", got)
	}
}

func TestSanitizeTrims(t *testing.T) {
	in := "   \n  Hello there.  \n   "
	if got := Sanitize(in); got != "Hello there." {
		t.Fatalf("expected trimmed output, got %q", got)
	}
}

func TestSanitizeDashAside(t *testing.T) {
	in := "This home - trust me on this - sells itself."
	out := Sanitize(in)

	if strings.Contains(out, "trust me") {
		t.Fatalf("dash aside survived: %q", out)
	}
	if !strings.Contains(out, "This home") || !strings.Contains(out, "sells itself.") {
		t.Fatalf("surrounding text lost: %q", out)
	}
}

func TestSanitizeAdjacentDashAsides(t *testing.T) {
	out := Sanitize("This home - trust me - - really - sells itself.")
	if out != "This home sells itself." {
		t.Fatalf("adjacent asides survived: %q", out)
	}
	if again := Sanitize(out); again != out {
		t.Fatalf("not stable for adjacent asides: %q vs %q", out, again)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"NARRATOR: Welcome! [pause] **Really** welcome.\n\n\n\n(whispers) Bye.",
		"Plain text with no markup at all.",
		"Scene 1: intro\n---\nA home - honestly - worth seeing.",
		"a - b - - c - d",
		"one - aside - - other - - third - end",
		"",
		"   \n\n   ",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}
