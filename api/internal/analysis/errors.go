package analysis

import (
	"errors"
	"strings"
)

type Kind int

const (
	UnknownFailure Kind = iota
	InvalidRequest
	StreamFailure
	MalformedResponse
	ModelRefusal
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "invalid_request"
	case StreamFailure:
		return "stream_failure"
	case MalformedResponse:
		return "malformed_response"
	case ModelRefusal:
		return "model_refusal"
	default:
		return "unknown_failure"
	}
}

// UnknownMessage is shown when a failure carries no usable text.
const UnknownMessage = "An unknown error occurred."

// Error is a terminal failure of one analysis attempt.
type Error struct {
	Kind    Kind
	Message string
	// Raw keeps the accumulated model text for MalformedResponse.
	Raw string
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = UnknownMessage
	}
	return e.Kind.String() + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	ErrInvalidRequest    = &Error{Kind: InvalidRequest}
	ErrStreamFailure     = &Error{Kind: StreamFailure}
	ErrMalformedResponse = &Error{Kind: MalformedResponse}
	ErrModelRefusal      = &Error{Kind: ModelRefusal}
)

// KindOf classifies err; anything that is not an *Error is UnknownFailure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownFailure
}

// UserMessage is the text a front-end shows for err. It is never blank.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return UnknownMessage
	}
	switch {
	case strings.TrimSpace(e.Message) != "":
		return e.Message
	case e.Err != nil && strings.TrimSpace(e.Err.Error()) != "":
		return e.Err.Error()
	default:
		return UnknownMessage
	}
}
