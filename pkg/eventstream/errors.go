package eventstream

import "errors"

var (
	// ErrNilChangeEvent indicates a nil change event was provided to a publisher.
	ErrNilChangeEvent = errors.New("nil change event")

	// ErrUnknownProvider indicates an unsupported event stream provider name.
	ErrUnknownProvider = errors.New("unknown event stream provider")
)
