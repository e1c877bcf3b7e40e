package entities

import "errors"

// FailureStage names the external call that failed for a segment
type FailureStage string

const (
	FailureStageEmotion       FailureStage = "emotion"
	FailureStageTranscription FailureStage = "transcription"
)

// FullTrackIndex is the SegmentFailure index used for the whole-answer transcription.
const FullTrackIndex = -1

// TranscriptFragment is the recognized text of a segment, if any
type TranscriptFragment struct {
	Text      string `json:"text,omitempty"`
	Available bool   `json:"available"`
}

// NewTranscript creates an available transcript fragment
func NewTranscript(text string) TranscriptFragment {
	return TranscriptFragment{Text: text, Available: true}
}

// SegmentFailure records a recovered collaborator failure
type SegmentFailure struct {
	Index  int          `json:"index"`
	Stage  FailureStage `json:"stage"`
	Reason string       `json:"reason"`
}

// SessionResult is everything the analyzer learned about one recorded answer.
// Emotions and Transcripts are indexed by segment and always have the same length.
type SessionResult struct {
	Question       string               `json:"question"`
	Emotions       []EmotionVector      `json:"emotions"`
	Transcripts    []TranscriptFragment `json:"transcripts"`
	FullTranscript TranscriptFragment   `json:"full_transcript"`
	Failures       []SegmentFailure     `json:"failures,omitempty"`
}

// NewSessionResult allocates a result with n empty slots
func NewSessionResult(question string, n int) *SessionResult {
	return &SessionResult{
		Question:    question,
		Emotions:    make([]EmotionVector, n),
		Transcripts: make([]TranscriptFragment, n),
	}
}

// Segments returns the number of slots
func (r *SessionResult) Segments() int {
	return len(r.Emotions)
}

// Validate checks the slot invariant
func (r *SessionResult) Validate() error {
	if len(r.Emotions) != len(r.Transcripts) {
		return errors.New("emotion and transcript slots differ in length")
	}
	return nil
}
