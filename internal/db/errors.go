package db

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrUnavailable   = errors.New("db: server unavailable")
)

// Op constants map to Redis command names for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHGetAll     = "HGETALL"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// unavailableFragments are driver error messages with no typed error to
// match against.
var unavailableFragments = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no route to host",
	"i/o timeout",
	"use of closed network connection",
	"rueidis client is closing",
}

// IsUnavailable reports whether err is a connectivity failure (dial refused,
// reset, network timeout) rather than a bad query. Context cancellation is
// the caller's doing and never counts.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range unavailableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
