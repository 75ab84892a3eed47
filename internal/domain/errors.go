package domain

import "errors"

var (
	// ErrNotFound indicates that an upstream lookup produced no match.
	ErrNotFound = errors.New("record not found")
	// ErrNoSeed indicates that none of the supplied favorite names resolved
	// to a concrete title, so the recommendation run cannot proceed.
	ErrNoSeed = errors.New("no seed movie found")
)
