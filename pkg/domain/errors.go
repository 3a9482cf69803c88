package domain

import "errors"

var (
	// ErrMissingInput means a run had no usable prompt or image; no external call was made.
	ErrMissingInput = errors.New("missing input")
	// ErrRemote wraps non-success responses and transport failures of the generation service.
	ErrRemote = errors.New("remote error")

	ErrDanglingEndpoint  = errors.New("edge endpoint does not exist")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrKindMismatch      = errors.New("payload kind does not match node kind")
	ErrNodeNotFound      = errors.New("node not found")
	ErrNotTriggerable    = errors.New("node kind cannot be run")
	ErrAlreadyRunning    = errors.New("node is already running")
	ErrInvalidTransition = errors.New("invalid run state transition")
)
