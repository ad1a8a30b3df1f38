package pipeline

import "fmt"

// Stage names one step of the render state machine.
type Stage string

const (
	StageVoiceover Stage = "voiceover"
	StageNormalize Stage = "normalize"
	StageClips     Stage = "clips"
	StageConcat    Stage = "concat"
	StageMix       Stage = "mix"
	StageFinalize  Stage = "finalize"
)

// StageError is the structured failure surfaced to callers: what went wrong
// and in which stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
