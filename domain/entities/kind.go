package entities

import "fmt"

// ErrorKind classifies a failure crossing the ABI boundary.
// The numeric value is part of the wire format and must not change.
type ErrorKind uint8

const (
	// ErrorKindUnknown is used for errors that carry no classification.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindNotFound reports an unknown command or channel name.
	ErrorKindNotFound
	// ErrorKindDecode reports a malformed envelope or payload.
	ErrorKindDecode
	// ErrorKindHandler reports a failure returned by a user handler.
	ErrorKindHandler
	// ErrorKindInitialization reports that state could not be constructed.
	ErrorKindInitialization
	// ErrorKindState reports an event that the connection state machine
	// does not accept (duplicate connect, data or close without connect).
	ErrorKindState
)

var errorKindNames = map[ErrorKind]string{
	ErrorKindUnknown:        "unknown",
	ErrorKindNotFound:       "not_found",
	ErrorKindDecode:         "decode_error",
	ErrorKindHandler:        "handler_error",
	ErrorKindInitialization: "initialization_error",
	ErrorKindState:          "state_error",
}

// String returns the snake_case name of the kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", uint8(k))
}

// Valid reports whether k is a known kind.
func (k ErrorKind) Valid() bool {
	_, ok := errorKindNames[k]
	return ok
}
