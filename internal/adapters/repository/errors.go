package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotFound = errors.New("key not found")
	ErrClosed   = errors.New("store closed")
	ErrCorrupt  = errors.New("cached value could not be decoded")
)
