package config

import "errors"

var (
	// ErrNotFound is returned when no channel has the requested id
	ErrNotFound = errors.New("channel not found")
	// ErrStorage wraps failures reading or writing channels.json
	ErrStorage = errors.New("channel storage error")
)
