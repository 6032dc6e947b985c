package domain

import "errors"

// ErrEmptyTrace is returned when a generator produces no steps.
// Every algorithm run, even one that fails immediately, must describe its outcome in at least one step.
var ErrEmptyTrace = errors.New("trace must contain at least one step")

// ErrUnknownAlgorithm is returned when a generator name is not registered.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ErrInvalidParams is returned when algorithm parameters cannot be decoded.
var ErrInvalidParams = errors.New("invalid algorithm parameters")

// ErrCacheMiss is returned by a TraceCache when no trace is stored under a key.
var ErrCacheMiss = errors.New("trace not cached")

// ErrSessionNotFound is returned when a session ID cannot be found in the manager.
var ErrSessionNotFound = errors.New("session not found")
