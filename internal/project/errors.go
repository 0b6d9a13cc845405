package project

import "errors"

var (
	// ErrNotFound: the project (or share token) does not resolve. Existence
	// is checked before ownership, so callers can tell the two apart.
	ErrNotFound = errors.New("project not found")
	// ErrNotOwner: the project exists but the actor does not own it.
	ErrNotOwner = errors.New("not authorized")
	// ErrPageNotFound: the page id is not part of the project.
	ErrPageNotFound = errors.New("page not found")
	// ErrValidation: required input missing or malformed.
	ErrValidation = errors.New("invalid input")
)
