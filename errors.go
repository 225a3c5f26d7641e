package rangecache

import "errors"

var (
	// ErrBaseDirectory is returned when the cache base directory cannot
	// be created or is not usable as a directory.
	ErrBaseDirectory = errors.New("invalid cache base directory")

	// ErrInvalidConfig is returned when a configuration value is out of
	// range.
	ErrInvalidConfig = errors.New("invalid cache configuration")
)
