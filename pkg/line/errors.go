package line

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid LINE client config")

	// ErrInvalidIDToken is returned when LINE rejects the ID token
	ErrInvalidIDToken = errors.New("invalid LINE ID token")

	// ErrNotConfigured is returned when the operation needs credentials that are not set
	ErrNotConfigured = errors.New("LINE credentials not configured")

	// ErrUnauthorized is returned when the channel access token is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid channel access token")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrRequestFailed is returned for any other non-2xx response
	ErrRequestFailed = errors.New("LINE API request failed")
)
