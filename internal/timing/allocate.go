package timing

import (
	"math"
	"sort"
	"strings"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

// CharsPerSecond is the fixed speech-rate estimate used to turn script
// length into seconds of voiceover.
const CharsPerSecond = 15

// MinCategorySeconds is the floor applied to each category's window.
const MinCategorySeconds = 3

// TimedAsset pairs one asset with its computed display duration.
type TimedAsset struct {
	Asset   domain.UploadedAsset
	Seconds float64
}

// Plan is an ordered display schedule for a run's assets. Durations sum to
// TotalSeconds, the estimated speech duration of the script.
type Plan struct {
	Items        []TimedAsset
	TotalSeconds float64
}

// EstimateSpeechSeconds returns ceil(len(script)/CharsPerSecond).
func EstimateSpeechSeconds(script string) float64 {
	if script == "" {
		return 0
	}
	return math.Ceil(float64(len(script)) / CharsPerSecond)
}

type categoryWindow struct {
	category string
	assets   []domain.UploadedAsset
	start    int
	end      int
	order    int
}

// Allocate maps each asset to a display duration by locating its category's
// keyword phrases inside the script. Categories are shown in the order their
// keywords first appear; categories never mentioned are pushed to the end.
// Returns nil when there is nothing to allocate against (empty script, no
// assets, or no vocabulary); callers must then fall back to EqualSplit.
//
// The result is advisory: it is a substring heuristic, not a guaranteed
// synchronization of speech to imagery.
func Allocate(assets []domain.UploadedAsset, scriptText string, vocab domain.Vocabulary) *Plan {
	if len(assets) == 0 || len(vocab) == 0 {
		return nil
	}
	lower := strings.ToLower(scriptText)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	// Group by category, preserving first-seen order for stable ties.
	windows := make([]*categoryWindow, 0, len(assets))
	byCategory := make(map[string]*categoryWindow)
	for _, a := range assets {
		w, ok := byCategory[a.Category]
		if !ok {
			w = &categoryWindow{category: a.Category, start: -1, end: -1, order: len(windows)}
			byCategory[a.Category] = w
			windows = append(windows, w)
		}
		w.assets = append(w.assets, a)
	}

	for _, w := range windows {
		for _, phrase := range vocab[w.category] {
			idx := 0
			for {
				pos := strings.Index(lower[idx:], phrase)
				if pos < 0 {
					break
				}
				start := idx + pos
				end := start + len(phrase)
				if w.start < 0 || start < w.start {
					w.start = start
				}
				if end > w.end {
					w.end = end
				}
				idx = end
			}
		}
		if w.start < 0 {
			// Unmentioned categories display last.
			w.start = len(lower)
			w.end = len(lower)
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].start != windows[j].start {
			return windows[i].start < windows[j].start
		}
		return windows[i].order < windows[j].order
	})

	total := EstimateSpeechSeconds(scriptText)

	raw := make([]float64, len(windows))
	var rawSum float64
	for i, w := range windows {
		secs := math.Ceil(float64(w.end-w.start) / CharsPerSecond)
		if secs < MinCategorySeconds {
			secs = MinCategorySeconds
		}
		raw[i] = secs
		rawSum += secs
	}

	// Scale the per-category windows so the plan total matches the estimated
	// speech duration.
	scale := total / rawSum

	plan := &Plan{TotalSeconds: total}
	for i, w := range windows {
		perAsset := raw[i] * scale / float64(len(w.assets))
		for _, a := range w.assets {
			plan.Items = append(plan.Items, TimedAsset{Asset: a, Seconds: perAsset})
		}
	}
	return plan
}

// EqualSplit is the explicit fallback used when Allocate returns nil: the
// estimated speech duration divided evenly across all assets in upload order.
func EqualSplit(assets []domain.UploadedAsset, scriptText string) *Plan {
	if len(assets) == 0 {
		return nil
	}
	total := EstimateSpeechSeconds(scriptText)
	if total == 0 {
		total = MinCategorySeconds * float64(len(assets))
	}
	perAsset := total / float64(len(assets))

	plan := &Plan{TotalSeconds: total}
	for _, a := range assets {
		plan.Items = append(plan.Items, TimedAsset{Asset: a, Seconds: perAsset})
	}
	return plan
}
