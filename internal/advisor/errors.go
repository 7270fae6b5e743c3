package advisor

import "errors"

var (
	// ErrMalformedResponse is returned when the provider response fails schema validation
	ErrMalformedResponse = errors.New("malformed advisor response")
	// ErrRequestFailed is returned when the provider call fails at the transport level
	ErrRequestFailed = errors.New("advisor request failed")
	// ErrUnexpectedStatus is returned when the provider responds with a non-200 status
	ErrUnexpectedStatus = errors.New("unexpected advisor response status")
	// ErrEmptyCompletion is returned when the provider returns no completion text
	ErrEmptyCompletion = errors.New("empty completion from advisor provider")
)
