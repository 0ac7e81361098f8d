package model

import "errors"

var (
	// ErrNotFound is returned by lookups on a missing slug or id.
	ErrNotFound = errors.New("entry not found")

	// ErrDuplicateSlug is returned when a create or save would violate the
	// unique slug constraint. The write fails as a whole; the search index
	// is never touched.
	ErrDuplicateSlug = errors.New("an entry with this slug already exists")

	// ErrIndexSync is returned when the entry row was committed but the
	// search index update failed. The two stores are divergent until a
	// reindex runs; the save is still reported as failed.
	ErrIndexSync = errors.New("search index sync failed")
)
