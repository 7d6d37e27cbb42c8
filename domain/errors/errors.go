// Package errors provides the error taxonomy shared by the command, channel
// and lifecycle paths. All error types support errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/turbo-genesis/turbo-go/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// KindedError is implemented by errors that know their wire kind.
type KindedError interface {
	error
	Kind() entities.ErrorKind
}

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// KindOf classifies err. Errors that carry no kind are handler errors,
// since anything else reaching the boundary came out of user code.
func KindOf(err error) entities.ErrorKind {
	if err == nil {
		return entities.ErrorKindUnknown
	}
	var ke KindedError
	if stdErrors.As(err, &ke) {
		return ke.Kind()
	}
	var detail *entities.ErrorDetail
	if stdErrors.As(err, &detail) {
		return detail.Kind
	}
	return entities.ErrorKindHandler
}

// HasKind reports whether err, or an error it wraps, carries an explicit kind.
func HasKind(err error) bool {
	var ke KindedError
	if stdErrors.As(err, &ke) {
		return true
	}
	var detail *entities.ErrorDetail
	return stdErrors.As(err, &detail)
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Kind:    KindOf(err),
	}
}

// NotFoundError reports an unknown command or channel name.
type NotFoundError struct {
	Resource string // "command" or "channel"
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// Kind implements KindedError.
func (e *NotFoundError) Kind() entities.ErrorKind {
	return entities.ErrorKindNotFound
}

// ToErrorDetail implements DetailedError.
func (e *NotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Kind: e.Kind(), Code: e.Name}
}

// DecodeError reports a malformed envelope or payload.
type DecodeError struct {
	Err    error
	Target string // what was being decoded, e.g. "command request"
}

func (e *DecodeError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("decode %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Kind implements KindedError.
func (e *DecodeError) Kind() entities.ErrorKind {
	return entities.ErrorKindDecode
}

// ToErrorDetail implements DetailedError.
func (e *DecodeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Kind: e.Kind(), Code: e.Target}
}

// HandlerError wraps a failure returned by a user handler.
type HandlerError struct {
	Err     error
	Handler string
	Stack   []byte
}

func (e *HandlerError) Error() string {
	if e.Handler != "" {
		return fmt.Sprintf("handler %s failed: %v", e.Handler, e.Err)
	}
	return fmt.Sprintf("handler failed: %v", e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Kind implements KindedError.
func (e *HandlerError) Kind() entities.ErrorKind {
	return entities.ErrorKindHandler
}

// ToErrorDetail implements DetailedError.
// The message is the handler's own message so clients see what the handler said.
func (e *HandlerError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Err.Error(), Kind: e.Kind(), Code: e.Handler, Stack: e.Stack}
}

// InitializationError reports that state could not be constructed from the
// persisted buffer. The lifecycle manager logs it and reinitializes.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("state initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Kind implements KindedError.
func (e *InitializationError) Kind() entities.ErrorKind {
	return entities.ErrorKindInitialization
}

// StateError reports a channel event the connection state machine rejects.
type StateError struct {
	Channel string
	UserID  string
	Event   string
	Reason  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("channel %q: %s for user %q: %s", e.Channel, e.Event, e.UserID, e.Reason)
}

// Kind implements KindedError.
func (e *StateError) Kind() entities.ErrorKind {
	return entities.ErrorKindState
}

// ToErrorDetail implements DetailedError.
func (e *StateError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Kind: e.Kind(), Code: e.Event}
}

// RegistrationError reports a structural problem found while registering
// handlers: empty or duplicate names, nil handlers, missing hooks.
type RegistrationError struct {
	Resource string
	Name     string
	Reason   string
}

func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("register %s: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("register %s %q: %s", e.Resource, e.Name, e.Reason)
}
