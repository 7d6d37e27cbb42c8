package wireformat

import (
	"fmt"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/domain/errors"
)

// Exit codes reported for command results.
const (
	// ExitCommit signals that a command succeeded and its effects stand.
	ExitCommit = 0
	// ExitCancel signals that a command failed and its effects are discarded.
	ExitCancel = 1
)

// Result tags.
const (
	tagOK  uint8 = 0
	tagErr uint8 = 1
)

// CommandRequest is the envelope the host passes to dispatch_command.
type CommandRequest struct {
	Name    string
	Payload []byte
	UserID  string
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r CommandRequest) MarshalBinary() ([]byte, error) {
	e := NewEncoder(12 + len(r.Name) + len(r.Payload) + len(r.UserID))
	e.String(r.Name)
	e.Bytes(r.Payload)
	e.String(r.UserID)
	return e.Data(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *CommandRequest) UnmarshalBinary(data []byte) error {
	d := NewDecoder(data)
	r.Name = d.String()
	r.Payload = d.Bytes()
	r.UserID = d.String()
	return d.Finish()
}

// Result is Ok(payload) or Err(kind, message). It is the reply envelope for
// commands, channel events and host functions.
type Result struct {
	Payload []byte
	Message string
	Kind    entities.ErrorKind
	OK      bool
}

// Ok returns a successful Result carrying payload.
func Ok(payload []byte) Result {
	return Result{OK: true, Payload: payload}
}

// Err returns a failed Result.
func Err(kind entities.ErrorKind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// ErrFrom converts err into a failed Result, classifying it by kind.
func ErrFrom(err error) Result {
	detail := errors.ToErrorDetail(err)
	if detail == nil {
		return Err(entities.ErrorKindUnknown, "")
	}
	return Err(detail.Kind, detail.Message)
}

// AsError returns the Result as a Go error, or nil when it is Ok.
func (r Result) AsError() error {
	if r.OK {
		return nil
	}
	return entities.NewErrorDetail(r.Kind, r.Message)
}

// ExitCode maps the Result to ExitCommit or ExitCancel.
func (r Result) ExitCode() int {
	if r.OK {
		return ExitCommit
	}
	return ExitCancel
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Result) MarshalBinary() ([]byte, error) {
	if r.OK {
		e := NewEncoder(5 + len(r.Payload))
		e.U8(tagOK)
		e.Bytes(r.Payload)
		return e.Data(), nil
	}
	e := NewEncoder(6 + len(r.Message))
	e.U8(tagErr)
	e.U8(uint8(r.Kind))
	e.String(r.Message)
	return e.Data(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Result) UnmarshalBinary(data []byte) error {
	d := NewDecoder(data)
	*r = Result{}
	switch tag := d.U8(); {
	case d.Err() != nil:
	case tag == tagOK:
		r.OK = true
		r.Payload = d.Bytes()
	case tag == tagErr:
		r.Kind = entities.ErrorKind(d.U8())
		r.Message = d.String()
	default:
		return fmt.Errorf("wireformat: unknown result tag %d", tag)
	}
	return d.Finish()
}

// EncodeResult encodes r. Result encoding cannot fail.
func EncodeResult(r Result) []byte {
	data, _ := r.MarshalBinary()
	return data
}

// DecodeResult decodes a Result envelope.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	err := r.UnmarshalBinary(data)
	return r, err
}

// EventCode identifies a channel lifecycle event.
type EventCode uint8

// Channel event codes, fixed by the ABI.
const (
	EventConnect  EventCode = 0
	EventData     EventCode = 1
	EventInterval EventCode = 2
	EventClose    EventCode = 3
)

// String returns the event name.
func (c EventCode) String() string {
	switch c {
	case EventConnect:
		return "connect"
	case EventData:
		return "data"
	case EventInterval:
		return "interval"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", uint8(c))
	}
}

// ParseEventCode parses an event name as produced by String.
func ParseEventCode(s string) (EventCode, error) {
	for _, c := range []EventCode{EventConnect, EventData, EventInterval, EventClose} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown channel event %q", s)
}

// ChannelEvent is the envelope the host passes to dispatch_channel_event.
type ChannelEvent struct {
	Channel string
	UserID  string
	Payload []byte
	Code    EventCode
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (ev ChannelEvent) MarshalBinary() ([]byte, error) {
	e := NewEncoder(13 + len(ev.Channel) + len(ev.UserID) + len(ev.Payload))
	e.U8(uint8(ev.Code))
	e.String(ev.Channel)
	e.String(ev.UserID)
	e.Bytes(ev.Payload)
	return e.Data(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (ev *ChannelEvent) UnmarshalBinary(data []byte) error {
	d := NewDecoder(data)
	ev.Code = EventCode(d.U8())
	ev.Channel = d.String()
	ev.UserID = d.String()
	ev.Payload = d.Bytes()
	return d.Finish()
}

// ChannelOutbound is the envelope the guest passes to the channel_send host
// function. When Broadcast is set UserID is ignored.
type ChannelOutbound struct {
	Channel   string
	UserID    string
	Payload   []byte
	Broadcast bool
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o ChannelOutbound) MarshalBinary() ([]byte, error) {
	e := NewEncoder(13 + len(o.Channel) + len(o.UserID) + len(o.Payload))
	e.String(o.Channel)
	e.String(o.UserID)
	if o.Broadcast {
		e.U8(1)
	} else {
		e.U8(0)
	}
	e.Bytes(o.Payload)
	return e.Data(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (o *ChannelOutbound) UnmarshalBinary(data []byte) error {
	d := NewDecoder(data)
	o.Channel = d.String()
	o.UserID = d.String()
	switch flag := d.U8(); flag {
	case 0:
		o.Broadcast = false
	case 1:
		o.Broadcast = true
	default:
		if d.Err() == nil {
			return fmt.Errorf("wireformat: invalid broadcast flag %d", flag)
		}
	}
	o.Payload = d.Bytes()
	return d.Finish()
}
