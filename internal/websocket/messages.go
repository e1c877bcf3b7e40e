package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/satriahrh/sikap/domain"
)

// Error codes sent in error messages
const (
	ErrorCodeInvalidMessage    = "invalid_message"
	ErrorCodeUnknownAction     = "unknown_action"
	ErrorCodeInvalidAudio      = "invalid_audio"
	ErrorCodeAudioFetchFailed  = "audio_fetch_failed"
	ErrorCodeInterviewNotFound = "interview_not_found"
	ErrorCodeInterviewStopped  = "interview_stopped"
	ErrorCodeNoAnswers         = "no_answers"
	ErrorCodeInvalidDifficulty = "invalid_difficulty"
	ErrorCodeInternal          = "internal_error"
)

var (
	// ErrUnknownAction is returned for an action outside the session protocol
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidMessage is returned for malformed or incomplete messages
	ErrInvalidMessage = errors.New("invalid message")
	// ErrAudioFetch is returned when audio_url could not be downloaded
	ErrAudioFetch = errors.New("failed to fetch audio")
)

// MessageValidator provides validation for incoming action messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage parses an incoming message and checks the fields its action requires
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (domain.ActionMessage, error) {
	var msg domain.ActionMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		return msg, fmt.Errorf("%w: invalid JSON format: %v", ErrInvalidMessage, err)
	}

	switch msg.Action {
	case domain.ActionAddQuestionAnswer:
		if msg.Question == "" {
			return msg, fmt.Errorf("%w: question is required", ErrInvalidMessage)
		}
		if msg.Answer == "" {
			return msg, fmt.Errorf("%w: answer is required", ErrInvalidMessage)
		}

	case domain.ActionRecordAnswer:
		if msg.Question == "" {
			return msg, fmt.Errorf("%w: question is required", ErrInvalidMessage)
		}
		if err := v.validateAudioSource(msg); err != nil {
			return msg, err
		}

	case domain.ActionSetDifficulty:
		if msg.Difficulty == "" {
			return msg, fmt.Errorf("%w: difficulty is required", ErrInvalidMessage)
		}

	case domain.ActionAnalyze, domain.ActionStopInterview, domain.ActionNextQuestion:

	case "":
		return msg, fmt.Errorf("%w: action is required", ErrInvalidMessage)

	default:
		return msg, fmt.Errorf("%w: %s", ErrUnknownAction, msg.Action)
	}

	return msg, nil
}

// validateAudioSource requires exactly one of audio_url or audio_data
func (v *MessageValidator) validateAudioSource(msg domain.ActionMessage) error {
	switch {
	case msg.AudioURL == "" && msg.AudioData == "":
		return fmt.Errorf("%w: audio_url or audio_data is required", ErrInvalidMessage)
	case msg.AudioURL != "" && msg.AudioData != "":
		return fmt.Errorf("%w: audio_url and audio_data are mutually exclusive", ErrInvalidMessage)
	case msg.AudioURL != "":
		u, err := url.Parse(msg.AudioURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: audio_url must be an http(s) URL", ErrInvalidMessage)
		}
	}
	return nil
}

// decodeAudioData decodes base64 audio_data
func decodeAudioData(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: audio_data is not valid base64", ErrInvalidMessage)
	}
	return decoded, nil
}

// errorCode maps an action failure to the code reported to the client
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return ErrorCodeUnknownAction
	case errors.Is(err, ErrInvalidMessage):
		return ErrorCodeInvalidMessage
	case errors.Is(err, ErrAudioFetch):
		return ErrorCodeAudioFetchFailed
	case errors.Is(err, domain.ErrInvalidAudio), errors.Is(err, domain.ErrInvalidSegmentCount):
		return ErrorCodeInvalidAudio
	case errors.Is(err, domain.ErrInterviewNotFound):
		return ErrorCodeInterviewNotFound
	case errors.Is(err, domain.ErrInterviewStopped):
		return ErrorCodeInterviewStopped
	case errors.Is(err, domain.ErrNoAnswers):
		return ErrorCodeNoAnswers
	case errors.Is(err, domain.ErrInvalidDifficulty):
		return ErrorCodeInvalidDifficulty
	default:
		return ErrorCodeInternal
	}
}

// newServerMessage stamps a server message for the session
func newServerMessage(messageType, sessionID string) domain.ServerMessage {
	return domain.ServerMessage{
		Type:      messageType,
		SessionID: sessionID,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(sessionID string, err error) domain.ServerMessage {
	msg := newServerMessage(domain.MessageTypeError, sessionID)
	msg.ErrorCode = errorCode(err)
	msg.Error = err.Error()
	return msg
}
