package api

import "errors"

var (
	// ErrInvalidRequestBody is returned when the request body cannot be decoded
	ErrInvalidRequestBody = errors.New("invalid request body")
	// ErrURLRequired is returned when no url is provided
	ErrURLRequired = errors.New("url is required")
	// ErrInvalidLimit is returned when the limit parameter is not a positive integer
	ErrInvalidLimit = errors.New("limit must be a positive integer")
	// ErrStoreNotConfigured is returned when the snapshot store is nil
	ErrStoreNotConfigured = errors.New("snapshot store not configured")
	// ErrMultipleJSONObjects is returned when the request body contains more than one JSON object
	ErrMultipleJSONObjects = errors.New("request body must contain a single JSON object")
)
