package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrLineTooLong   = errors.New("line exceeds size limit")
	ErrPoolExhausted = errors.New("no free position")
)

// ConnectError reports a failed bind or dial. It is fatal to whichever side
// attempted it.
type ConnectError struct {
	Op   string // "listen" or "dial"
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DecodeError reports a payload that could not be parsed. It ends the read
// or session it happened on and nothing else.
type DecodeError struct {
	What    string // "command", "name", "state", ...
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %q: %v", e.What, e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DisconnectError reports the end of one connection: EOF, a failed read or
// a failed write. It is the normal end of a session.
type DisconnectError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnected on %s: %v", e.Op, e.Err)
}

func (e *DisconnectError) Unwrap() error { return e.Err }

// IsDisconnect reports whether err is, or wraps, a DisconnectError.
func IsDisconnect(err error) bool {
	var de *DisconnectError
	return errors.As(err, &de)
}

// IsDecode reports whether err is, or wraps, a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
