package client

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by calls on a closed client.
var ErrClosed = errors.New("client: closed")

// CommandError is an error reply from the server. The connection stays
// usable.
type CommandError struct {
	Message string
	Code    int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// TransportError is an I/O or framing failure. The client is unusable
// afterwards.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "client: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsCommandError reports whether err is a server error reply.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// IsTransportError reports whether err broke the connection.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
