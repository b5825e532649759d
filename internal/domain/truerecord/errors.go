package truerecord

import "errors"

// Sentinel errors returned by AggregateSeason.
var (
	ErrInvalidWeek   = errors.New("week number must be positive")
	ErrDuplicateWeek = errors.New("week number appears more than once")
)
