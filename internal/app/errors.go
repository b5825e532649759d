package service

import "errors"

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrRefreshInFlight = errors.New("refresh already in progress for this league season")
	ErrBackpressure    = errors.New("refresh queue is full")
	ErrNotStarted      = errors.New("service not started")
	ErrNoWeeks         = errors.New("no weekly scores available")
	ErrUpstream        = errors.New("sports data source failed")
)
