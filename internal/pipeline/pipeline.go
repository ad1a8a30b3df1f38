package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/media"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/script"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/timing"
)

const (
	outputFPS = 30

	// The music bed fades out over fadeSeconds, ending one second before the
	// video ends.
	fadeSeconds    = 3
	fadeTailOffset = 1
)

// Synthesizer is the speech capability the voiceover stage consumes.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
}

type Deps struct {
	Tool  media.Tool
	Synth Synthesizer
	Logf  func(format string, args ...any)
}

// Input is one run's working set. ScratchDir must be unique to the run;
// everything the run writes there, plus the consumed uploads, is deleted when
// the run ends, successfully or not.
type Input struct {
	RunID      string
	Assets     []domain.UploadedAsset
	Script     string
	Settings   domain.RenderSettings
	Vocabulary domain.Vocabulary
	ScratchDir string
	MusicPath  string
	OutputPath string
}

type Result struct {
	VideoPath       string
	SizeBytes       int64
	DurationSeconds float64
	Plan            *timing.Plan
}

// Run executes the render pipeline: voiceover synthesis, image
// normalization, per-image clip construction, concatenation, audio mix and
// finalization, strictly in that order. Any failure aborts the remaining
// stages; cleanup happens on every exit path.
func Run(ctx context.Context, deps Deps, in Input) (Result, error) {
	logf := deps.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	if len(in.Assets) == 0 {
		return Result{}, stageErr(StageVoiceover, fmt.Errorf("no assets to render"))
	}

	defer cleanup(in, logf)

	// Voiceover synthesis.
	spoken := script.Sanitize(in.Script)
	if spoken == "" {
		return Result{}, stageErr(StageVoiceover, fmt.Errorf("script is empty after sanitizing"))
	}

	audio, err := deps.Synth.SynthesizeSpeech(ctx, spoken, in.Settings.Voice)
	if err != nil {
		return Result{}, stageErr(StageVoiceover, err)
	}
	voicePath := filepath.Join(in.ScratchDir, "voiceover.mp3")
	if err := os.WriteFile(voicePath, audio, 0o644); err != nil {
		return Result{}, stageErr(StageVoiceover, fmt.Errorf("write voiceover: %w", err))
	}
	logf("run %s: voiceover synthesized (%d bytes)", in.RunID, len(audio))

	// Timing. The keyword allocation is advisory; when it has nothing to work
	// with the run falls back, explicitly, to an equal split in upload order.
	plan := timing.Allocate(in.Assets, spoken, in.Vocabulary)
	if plan == nil {
		plan = timing.EqualSplit(in.Assets, spoken)
		logf("run %s: keyword allocation unavailable, using equal split", in.RunID)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, stageErr(StageNormalize, err)
	}

	// Image normalization. Zero-padded names keep lexical order equal to
	// display order.
	imagesDir := filepath.Join(in.ScratchDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return Result{}, stageErr(StageNormalize, err)
	}
	normalized := make([]string, len(plan.Items))
	for i, item := range plan.Items {
		out := filepath.Join(imagesDir, fmt.Sprintf("img_%03d.png", i))
		args := []string{"-y", "-i", item.Asset.Path, out}
		if err := deps.Tool.Run(ctx, args); err != nil {
			return Result{}, stageErr(StageNormalize, fmt.Errorf("normalize %s: %w", item.Asset.FileName, err))
		}
		normalized[i] = out
	}
	logf("run %s: %d images normalized", in.RunID, len(normalized))

	if err := ctx.Err(); err != nil {
		return Result{}, stageErr(StageClips, err)
	}

	// Clip construction: one fixed-duration silent segment per image, scaled
	// to fit and padded with black bars.
	width, height := in.Settings.Aspect.Resolution()
	scalePad := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1",
		width, height, width, height,
	)

	clipsDir := filepath.Join(in.ScratchDir, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return Result{}, stageErr(StageClips, err)
	}
	clips := make([]string, len(plan.Items))
	for i, item := range plan.Items {
		out := filepath.Join(clipsDir, fmt.Sprintf("clip_%03d.mp4", i))
		args := []string{
			"-y",
			"-loop", "1",
			"-t", fmt.Sprintf("%.3f", item.Seconds),
			"-i", normalized[i],
			"-vf", scalePad,
			"-r", fmt.Sprintf("%d", outputFPS),
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-pix_fmt", "yuv420p",
			out,
		}
		if err := deps.Tool.Run(ctx, args); err != nil {
			return Result{}, stageErr(StageClips, fmt.Errorf("clip %d: %w", i, err))
		}
		clips[i] = out
	}
	logf("run %s: %d clips built", in.RunID, len(clips))

	if err := ctx.Err(); err != nil {
		return Result{}, stageErr(StageConcat, err)
	}

	// Concatenation in stream-copy mode, driven by an ordered manifest.
	manifestPath := filepath.Join(in.ScratchDir, "concat.txt")
	var manifest string
	for _, clip := range clips {
		manifest += fmt.Sprintf("file '%s'\n", clip)
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return Result{}, stageErr(StageConcat, fmt.Errorf("write manifest: %w", err))
	}

	silentPath := filepath.Join(in.ScratchDir, "silent.mp4")
	concatArgs := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		silentPath,
	}
	if err := deps.Tool.Run(ctx, concatArgs); err != nil {
		return Result{}, stageErr(StageConcat, err)
	}
	logf("run %s: clips concatenated", in.RunID)

	if err := ctx.Err(); err != nil {
		return Result{}, stageErr(StageMix, err)
	}

	// Audio mix. Music is optional and best-effort: a missing track file
	// falls back to voiceover-only muxing.
	mixedPath := filepath.Join(in.ScratchDir, "mixed.mp4")
	if err := deps.Tool.Run(ctx, mixArgs(in, plan, voicePath, silentPath, mixedPath)); err != nil {
		return Result{}, stageErr(StageMix, err)
	}
	logf("run %s: audio mixed", in.RunID)

	if err := ctx.Err(); err != nil {
		return Result{}, stageErr(StageFinalize, err)
	}

	// Finalization: report path, size and duration, then hand the artifact
	// out of scratch space before cleanup runs.
	duration, err := deps.Tool.ProbeDuration(ctx, mixedPath)
	if err != nil {
		return Result{}, stageErr(StageFinalize, err)
	}

	info, err := os.Stat(mixedPath)
	if err != nil {
		return Result{}, stageErr(StageFinalize, fmt.Errorf("stat artifact: %w", err))
	}

	if err := os.Rename(mixedPath, in.OutputPath); err != nil {
		return Result{}, stageErr(StageFinalize, fmt.Errorf("move artifact: %w", err))
	}

	logf("run %s: finalized %s (%.1fs, %d bytes)", in.RunID, in.OutputPath, duration, info.Size())

	return Result{
		VideoPath:       in.OutputPath,
		SizeBytes:       info.Size(),
		DurationSeconds: duration,
		Plan:            plan,
	}, nil
}

// mixArgs builds the mux/mix invocation. With a music bed present the bed is
// looped, attenuated to the requested gain and faded out over the last
// seconds; without one the voiceover is muxed alone. Either way -shortest
// clamps the output to the shorter input.
func mixArgs(in Input, plan *timing.Plan, voicePath, silentPath, outPath string) []string {
	withMusic := in.Settings.Music != "none" && in.MusicPath != ""

	args := []string{
		"-y",
		"-i", silentPath,
		"-i", voicePath,
	}

	if withMusic {
		gain := float64(in.Settings.MusicGain) / 100
		fadeStart := plan.TotalSeconds - fadeSeconds - fadeTailOffset
		if fadeStart < 0 {
			fadeStart = 0
		}
		filter := fmt.Sprintf(
			"[2:a]volume=%.2f,afade=t=out:st=%.3f:d=%d[bg];[1:a][bg]amix=inputs=2:duration=shortest:dropout_transition=0:normalize=0[aout]",
			gain, fadeStart, fadeSeconds,
		)
		args = append(args,
			"-stream_loop", "-1",
			"-i", in.MusicPath,
			"-filter_complex", filter,
			"-map", "0:v",
			"-map", "[aout]",
		)
	} else {
		args = append(args,
			"-map", "0:v",
			"-map", "1:a",
		)
	}

	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outPath,
	)
	return args
}

// cleanup deletes the run's scratch tree and the uploads it consumed. It
// runs on every exit path; the finalized artifact has already been moved out
// by then.
func cleanup(in Input, logf func(string, ...any)) {
	if in.ScratchDir != "" {
		if err := os.RemoveAll(in.ScratchDir); err != nil {
			logf("run %s: scratch cleanup failed: %v", in.RunID, err)
		}
	}
	for _, a := range in.Assets {
		if a.Path == "" {
			continue
		}
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			logf("run %s: remove upload %s failed: %v", in.RunID, a.FileName, err)
		}
	}
}
