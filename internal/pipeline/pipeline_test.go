package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

// fakeTool records every invocation and fabricates the output file each one
// would have produced.
type fakeTool struct {
	calls  [][]string
	failOn func(args []string) error
}

func (f *fakeTool) Run(_ context.Context, args []string) error {
	f.calls = append(f.calls, args)
	if f.failOn != nil {
		if err := f.failOn(args); err != nil {
			return err
		}
	}
	out := args[len(args)-1]
	return os.WriteFile(out, []byte("fake"), 0o644)
}

func (f *fakeTool) ProbeDuration(_ context.Context, _ string) (float64, error) {
	return 21.5, nil
}

type fakeSynth struct {
	gotText  string
	gotVoice string
	err      error
}

func (f *fakeSynth) SynthesizeSpeech(_ context.Context, text, voiceID string) ([]byte, error) {
	f.gotText = text
	f.gotVoice = voiceID
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3-bytes"), nil
}

func testInput(t *testing.T, settings domain.RenderSettings) Input {
	t.Helper()

	base := t.TempDir()
	scratch := filepath.Join(base, "scratch")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		t.Fatal(err)
	}

	uploads := filepath.Join(base, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		t.Fatal(err)
	}

	assets := make([]domain.UploadedAsset, 2)
	for i, cat := range []string{"kitchen", "bedroom"} {
		path := filepath.Join(uploads, fmt.Sprintf("upload_%d.jpg", i))
		if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
			t.Fatal(err)
		}
		assets[i] = domain.UploadedAsset{
			ID:       fmt.Sprintf("a%d", i),
			FileName: fmt.Sprintf("photo_%d.jpg", i),
			Category: cat,
			Path:     path,
		}
	}

	return Input{
		RunID:      "test-run",
		Assets:     assets,
		Script:     "Our beautiful kitchen features granite counters. The bedroom is a peaceful retreat.",
		Settings:   settings,
		Vocabulary: domain.VocabularyFor(domain.NicheRealEstate),
		ScratchDir: scratch,
		OutputPath: filepath.Join(base, "final.mp4"),
	}
}

func TestRunHappyPathVoiceoverOnly(t *testing.T) {
	tool := &fakeTool{}
	synth := &fakeSynth{}
	settings := domain.DefaultRenderSettings()

	in := testInput(t, settings)
	res, err := Run(context.Background(), Deps{Tool: tool, Synth: synth}, in)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.VideoPath != in.OutputPath {
		t.Fatalf("artifact at %s, expected %s", res.VideoPath, in.OutputPath)
	}
	if _, err := os.Stat(res.VideoPath); err != nil {
		t.Fatalf("final artifact missing: %v", err)
	}
	if res.DurationSeconds != 21.5 {
		t.Fatalf("expected probed duration 21.5, got %v", res.DurationSeconds)
	}
	if synth.gotVoice != settings.Voice {
		t.Fatalf("synth voice %q, expected %q", synth.gotVoice, settings.Voice)
	}

	// Kitchen is mentioned first, so its clip must be built first.
	if res.Plan.Items[0].Asset.Category != "kitchen" {
		t.Fatalf("expected kitchen first in plan, got %s", res.Plan.Items[0].Asset.Category)
	}

	// Scratch and uploads are consumed either way.
	if _, err := os.Stat(in.ScratchDir); !os.IsNotExist(err) {
		t.Fatalf("scratch dir survived cleanup: %v", err)
	}
	for _, a := range in.Assets {
		if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
			t.Fatalf("upload %s survived cleanup", a.FileName)
		}
	}
}

func TestRunMusicNoneAppliesNoMixFilter(t *testing.T) {
	tool := &fakeTool{}
	in := testInput(t, domain.DefaultRenderSettings())

	if _, err := Run(context.Background(), Deps{Tool: tool, Synth: &fakeSynth{}}, in); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, call := range tool.calls {
		for _, arg := range call {
			if arg == "-filter_complex" {
				t.Fatalf("music none must not apply a mix filter: %v", call)
			}
		}
	}
}

func TestRunMusicGainFiftyAppliesHalfVolume(t *testing.T) {
	tool := &fakeTool{}
	settings := domain.RenderSettings{
		Voice:     "nova",
		Music:     "upbeat",
		MusicGain: 50,
		Aspect:    domain.AspectPortrait,
	}
	in := testInput(t, settings)

	musicPath := filepath.Join(t.TempDir(), "upbeat.mp3")
	if err := os.WriteFile(musicPath, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	in.MusicPath = musicPath

	if _, err := Run(context.Background(), Deps{Tool: tool, Synth: &fakeSynth{}}, in); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var filter string
	for _, call := range tool.calls {
		for i, arg := range call {
			if arg == "-filter_complex" && i+1 < len(call) {
				filter = call[i+1]
			}
		}
	}
	if filter == "" {
		t.Fatal("expected a mix filter with music selected")
	}
	if !strings.Contains(filter, "volume=0.50") {
		t.Fatalf("expected music gain 0.50 in filter, got %q", filter)
	}
	if !strings.Contains(filter, "afade=t=out") {
		t.Fatalf("expected fade-out in filter, got %q", filter)
	}
}

func TestRunPortraitResolutionInScaleFilter(t *testing.T) {
	tool := &fakeTool{}
	settings := domain.DefaultRenderSettings()
	settings.Aspect = domain.AspectPortrait
	in := testInput(t, settings)

	if _, err := Run(context.Background(), Deps{Tool: tool, Synth: &fakeSynth{}}, in); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	found := false
	for _, call := range tool.calls {
		for _, arg := range call {
			if strings.Contains(arg, "scale=1080:1920") {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected 1080x1920 scale filter for 9:16 output")
	}
}

func TestRunFailureAtClipStageCleansEverything(t *testing.T) {
	boom := errors.New("encoder exploded")
	tool := &fakeTool{
		failOn: func(args []string) error {
			for _, arg := range args {
				if arg == "-loop" {
					return boom
				}
			}
			return nil
		},
	}
	in := testInput(t, domain.DefaultRenderSettings())

	_, err := Run(context.Background(), Deps{Tool: tool, Synth: &fakeSynth{}}, in)
	if err == nil {
		t.Fatal("expected failure")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %T: %v", err, err)
	}
	if stageErr.Stage != StageClips {
		t.Fatalf("expected failure attributed to clips, got %s", stageErr.Stage)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause preserved, got %v", err)
	}

	if _, err := os.Stat(in.ScratchDir); !os.IsNotExist(err) {
		t.Fatal("scratch dir must be removed after a failed run")
	}
	if _, err := os.Stat(in.OutputPath); !os.IsNotExist(err) {
		t.Fatal("no final artifact should exist after a failed run")
	}
	for _, a := range in.Assets {
		if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
			t.Fatalf("upload %s survived failed-run cleanup", a.FileName)
		}
	}
}

func TestRunSynthesisFailureAttributedToVoiceover(t *testing.T) {
	tool := &fakeTool{}
	in := testInput(t, domain.DefaultRenderSettings())

	_, err := Run(context.Background(), Deps{Tool: tool, Synth: &fakeSynth{err: errors.New("quota")}}, in)
	if err == nil {
		t.Fatal("expected failure")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageVoiceover {
		t.Fatalf("expected voiceover stage error, got %v", err)
	}
	if len(tool.calls) != 0 {
		t.Fatalf("media tool must not run after synthesis fails, got %d calls", len(tool.calls))
	}
}

func TestRunSanitizesScriptBeforeSynthesis(t *testing.T) {
	synth := &fakeSynth{}
	in := testInput(t, domain.DefaultRenderSettings())
	in.Script = "NARRATOR: Welcome to the kitchen! [upbeat] The bedroom (upstairs) awaits."

	if _, err := Run(context.Background(), Deps{Tool: &fakeTool{}, Synth: synth}, in); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if strings.Contains(synth.gotText, "[upbeat]") || strings.Contains(synth.gotText, "NARRATOR:") {
		t.Fatalf("unsanitized script reached synthesizer: %q", synth.gotText)
	}
}

func TestRunCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &fakeSynth{err: ctx.Err()}
	in := testInput(t, domain.DefaultRenderSettings())

	_, err := Run(ctx, Deps{Tool: &fakeTool{}, Synth: synth}, in)
	if err == nil {
		t.Fatal("expected cancelled run to fail")
	}
	if _, statErr := os.Stat(in.ScratchDir); !os.IsNotExist(statErr) {
		t.Fatal("scratch dir must be cleaned up after cancellation")
	}
}
