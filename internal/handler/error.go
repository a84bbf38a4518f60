package handler

import "fmt"

// PreconditionError means a command cannot run in the current situation,
// such as the caller not sitting in a voice channel.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

var _ error = (*PreconditionError)(nil)

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)

// PlayError wraps anything that went wrong between resolving a URL and
// starting playback.
type PlayError struct {
	URL string
	Err error
}

func (e *PlayError) Error() string {
	return fmt.Sprintf("failed to play %s: %v", e.URL, e.Err)
}

func (e *PlayError) Unwrap() error {
	return e.Err
}

var _ error = (*PlayError)(nil)
