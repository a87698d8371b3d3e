package intelligence

import (
	"errors"

	"github.com/alexanderramin/coursechat/internal/llm"
)

var (
	// ErrStaleExchange is returned when a restart happened while the
	// exchange was in flight. Its reply is discarded.
	ErrStaleExchange = errors.New("exchange superseded by restart")
	// ErrExchangeInFlight rejects a second message while one is pending.
	ErrExchangeInFlight = errors.New("an exchange is already in progress")
	ErrEmptyMessage     = errors.New("message is empty")
	// ErrToolLoop is logged when the model keeps requesting tools past the
	// configured bound.
	ErrToolLoop = errors.New("tool iteration limit reached")
)

// User-facing texts.
const (
	ConfigErrorMessage  = "Service Unavailable: Configuration Error (API Key)"
	OverloadedMessage   = "I'm receiving too many messages right now. Please wait a moment and try again."
	GenericFailureReply = "I'm experiencing high traffic right now. Please try again in a few seconds."
	RephraseReply       = "I didn't quite understand that. Could you please rephrase your question? For example: 'Show me SMSTS courses in London'"
	InFlightMessage     = "Please wait for the current reply before sending another message."
	NeutralNoMatchReply = "I couldn't find any courses matching those exact criteria. Would you like to search for other dates or course types?"
)

// PresentError maps an error returned by Send to the text a chat surface
// shows in place of a reply. Auth failures keep the configuration message
// so operators can tell them apart from load.
func PresentError(err error) string {
	switch {
	case errors.Is(err, llm.ErrAuth), errors.Is(err, llm.ErrDisabled):
		return ConfigErrorMessage
	case errors.Is(err, llm.ErrOverloaded):
		return OverloadedMessage
	case errors.Is(err, ErrExchangeInFlight):
		return InFlightMessage
	default:
		return GenericFailureReply
	}
}
