package main

import (
	"errors"
	"fmt"
)

var (
	// ErrBookNotFound is returned by the record store when no row matches
	// both the book id and the owner id.
	ErrBookNotFound = errors.New("book not found")
	// ErrSessionNotFound is returned by the session store for unknown or
	// expired tokens.
	ErrSessionNotFound = errors.New("session not found")
)

// FetchError wraps a read-path failure against the record store. Callers
// log it and keep rendering the previous state; it never reaches the user
// as a blocking message.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError wraps a write-path failure against the record store. The
// cause text is surfaced to the user, so it must stay meaningful.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// AuthError wraps session operation failures.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }
