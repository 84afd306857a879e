package kv

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by drivers used after Close.
var ErrClosed = errors.New("kv store closed")

// DecodeError is returned when a stored value cannot be decoded into the
// requested type.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding value for key %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when a value cannot be marshalled for storage.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding value for key %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
