package domain

import "encoding/json"

// Session protocol actions sent by the client
const (
	ActionAddQuestionAnswer = "add_question_answer"
	ActionRecordAnswer      = "record_answer"
	ActionAnalyze           = "analyze"
	ActionStopInterview     = "stop_interview"
	ActionSetDifficulty     = "set_difficulty"
	ActionNextQuestion      = "next_question"
)

// Session protocol message types sent by the server
const (
	MessageTypeAnswerAdded      = "answer_added"
	MessageTypeAnswerReport     = "answer_report"
	MessageTypeAnalysis         = "analysis"
	MessageTypeSpeakingStart    = "speaking_start"
	MessageTypeSpeakingEnd      = "speaking_end"
	MessageTypeInterviewStopped = "interview_stopped"
	MessageTypeDifficultySet    = "difficulty_set"
	MessageTypeQuestion         = "question"
	MessageTypeError            = "error"
)

// ActionMessage is an incoming client message
type ActionMessage struct {
	Action     string `json:"action"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer,omitempty"`
	AudioURL   string `json:"audio_url,omitempty"`
	AudioData  string `json:"audio_data,omitempty"` // base64 encoded WAV
	Difficulty string `json:"difficulty,omitempty"`
}

// ServerMessage is an outgoing server message
type ServerMessage struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id"`
	Count      int             `json:"count,omitempty"`
	Question   string          `json:"question,omitempty"`
	Difficulty string          `json:"difficulty,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
	Feedback   string          `json:"feedback,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timestamp  string          `json:"timestamp"`
}
