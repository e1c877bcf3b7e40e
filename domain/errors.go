package domain

import "errors"

// Pipeline preconditions. These are the only errors that reach the caller of an analysis.
var (
	ErrInvalidSegmentCount = errors.New("invalid segment count")
	ErrZeroSegments        = errors.New("no segments to aggregate")
	// ErrInvalidAudio is returned when the recorded answer is not a readable WAV file.
	ErrInvalidAudio = errors.New("invalid audio")
)

// Collaborator failures. They are recovered at the segment boundary and only ever logged
// or recorded as a SegmentFailure.
var (
	// ErrNoSpeechDetected is returned when the speech service could not recognize any speech.
	ErrNoSpeechDetected = errors.New("no speech detected in audio")
	// ErrTranscriptionService is returned when the speech service is unreachable or failed.
	ErrTranscriptionService = errors.New("transcription service unavailable")
	// ErrAffectService is returned when the emotion inference service failed.
	ErrAffectService = errors.New("affect service unavailable")
)

// ErrNoAnswers is returned when interview feedback is requested before any answer was recorded.
var ErrNoAnswers = errors.New("interview has no recorded answers")

// Interview store errors.
var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrInterviewStopped  = errors.New("interview already stopped")
	// ErrInvalidDifficulty is returned for a difficulty other than easy, medium or hard.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
