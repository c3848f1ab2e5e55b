package vision

import "errors"

var (
	// ErrModelLoad wraps every failure that keeps a backend from becoming ready.
	ErrModelLoad         = errors.New("face analysis models failed to load")
	ErrNoAPIKey          = errors.New("api key is required")
	ErrUnknownProvider   = errors.New("unknown estimation provider")
	ErrMalformedEstimate = errors.New("malformed age estimate")
	ErrNotConnected      = errors.New("estimation service not connected")
	ErrEmptyFrame        = errors.New("empty frame")
)
