package introspection

import (
	"errors"
	"fmt"
)

// ErrorKind classifies introspection failures.
type ErrorKind string

const (
	// KindConfiguration means required configuration (the scripts path) is missing.
	KindConfiguration ErrorKind = "configuration"

	// KindRetrieval means the external command could not be run, exited with
	// failure, or reported an error of its own.
	KindRetrieval ErrorKind = "retrieval"

	// KindDecode means the command ran but its output was not valid in the
	// expected dialect. Decode errors also match ErrRetrieval.
	KindDecode ErrorKind = "decode"

	// KindInvalidArgument means the type name itself is unusable.
	KindInvalidArgument ErrorKind = "invalid_argument"
)

// Error is a classified introspection error.
type Error struct {
	// Kind is the error classification.
	Kind ErrorKind

	// Op is the operation being performed ("get_type_template", "get_type_schema", "get_type_info").
	Op string

	// TypeName is the type being introspected.
	TypeName string

	// Message is the human-readable error message.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.TypeName != "" {
		msg = fmt.Sprintf("[%s] %s (type=%s)", e.Kind, e.Message, e.TypeName)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, so errors.Is(err, ErrRetrieval) works for any retrieval
// error. A decode error is also a retrieval error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindDecode && t.Kind == KindRetrieval
}

// Sentinels for errors.Is.
var (
	ErrConfiguration   = &Error{Kind: KindConfiguration, Message: "configuration error"}
	ErrRetrieval       = &Error{Kind: KindRetrieval, Message: "retrieval error"}
	ErrDecode          = &Error{Kind: KindDecode, Message: "decode error"}
	ErrInvalidTypeName = &Error{Kind: KindInvalidArgument, Message: "invalid type name"}
)

func newError(kind ErrorKind, op, typeName, message string, err error) *Error {
	return &Error{
		Kind:     kind,
		Op:       op,
		TypeName: typeName,
		Message:  message,
		Err:      err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
