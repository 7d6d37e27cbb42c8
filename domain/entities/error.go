package entities

import "fmt"

// ErrorDetail provides structured error information.
// It is the JSON shape used in logs and in the manifest tooling; on the
// binary wire only Kind and Message are carried.
type ErrorDetail struct {
	// Message is a human-readable error description.
	Message string `json:"message"`

	// Code is a machine-readable detail such as the command or channel name.
	Code string `json:"code,omitempty"`

	// Stack contains the stack trace for recovered panics.
	Stack []byte `json:"stack,omitempty"`

	// Kind categorizes the error.
	Kind ErrorKind `json:"kind"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Kind != ErrorKindUnknown {
		msg = fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	return msg
}

// NewErrorDetail creates a new ErrorDetail with the given kind and message.
func NewErrorDetail(kind ErrorKind, message string) *ErrorDetail {
	return &ErrorDetail{
		Kind:    kind,
		Message: message,
	}
}

// WithCode returns the ErrorDetail with the given code attached.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}
