package services

import "fmt"

// ConfigurationError reports a missing required credential.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Missing)
}

// AnalysisError reports a vision-capability failure for one image.
type AnalysisError struct {
	FileName string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.FileName, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// DraftError reports a script-drafting failure.
type DraftError struct {
	Err error
}

func (e *DraftError) Error() string { return fmt.Sprintf("draft script: %v", e.Err) }

func (e *DraftError) Unwrap() error { return e.Err }

// SynthesisError reports a speech-synthesis failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("synthesize speech: %v", e.Err) }

func (e *SynthesisError) Unwrap() error { return e.Err }
