package espn

import "errors"

// Sentinel errors returned by the client.
var (
	// ErrUpstream covers transport failures and non-2xx responses.
	ErrUpstream = errors.New("espn upstream error")
	// ErrMalformedPayload means the response decoded but failed validation.
	ErrMalformedPayload = errors.New("espn malformed payload")
	// ErrInvalidArgument rejects a request before it is sent.
	ErrInvalidArgument = errors.New("espn invalid argument")
)
