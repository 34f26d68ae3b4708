package telegram

import "errors"

var (
	// ErrAuthenticationRequired means there is no usable session and an
	// interactive login (code or 2FA password) would be needed.
	ErrAuthenticationRequired = errors.New("telegram authentication required")

	// ErrChannelNotFound means the identifier could not be resolved to a
	// channel: unknown, private, misspelled or not a channel at all.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNotConnected is returned by API calls made before Connect.
	ErrNotConnected = errors.New("telegram client not connected")
)
