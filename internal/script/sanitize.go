package script

import (
	"regexp"
	"strings"
)

// Model-drafted scripts come back littered with stage directions, markdown
// emphasis and scene markers that must never reach the speech synthesizer.

var (
	bracketDirection = regexp.MustCompile(`\[[^\]]*\]`)
	boldMarker       = regexp.MustCompile(`\*\*`)
	speakerLabel     = regexp.MustCompile(`(?im)^\s*(?:NARRATOR|VOICEOVER|ANNOUNCER|HOST|VO)\s*:\s*`)
	sceneMarker      = regexp.MustCompile(`(?im)^\s*(?:SCENE\s+\d+\s*:?.*|-{3,})\s*$`)
	parenthetical    = regexp.MustCompile(`\([^)]*\)`)
	dashAside        = regexp.MustCompile(`\s+-\s[^-]*\s-\s`)
	blankRuns        = regexp.MustCompile(`\n{4,}`)
)

// Sanitize strips non-spoken markup from a raw script. It is pure and
// idempotent: sanitizing an already-clean script returns it unchanged.
func Sanitize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	text = bracketDirection.ReplaceAllString(text, "")
	text = boldMarker.ReplaceAllString(text, "")
	text = speakerLabel.ReplaceAllString(text, "")
	text = sceneMarker.ReplaceAllString(text, "")
	text = parenthetical.ReplaceAllString(text, "")
	// Adjacent asides share their separating whitespace, so a single pass
	// can leave the second one behind. Replace to a fixpoint.
	for {
		next := dashAside.ReplaceAllString(text, " ")
		if next == text {
			break
		}
		text = next
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
