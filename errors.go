package pubcontent

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("pubcontent: post not found")

	ErrNoFrontMatter = errors.New("no front matter block")
	ErrMissingField  = errors.New("required field is missing")
	ErrDateFormat    = errors.New("date is not a recognized date-time")
	ErrDateNoOffset  = errors.New("date has no explicit UTC offset")
	ErrDuplicateSlug = errors.New("slug is already used by another document")

	ErrUnclosedFence   = errors.New("code fence is never closed")
	ErrStrayFenceClose = errors.New("endhighlight without a matching highlight")
)

// DocumentError ties a parse failure to the document it came from.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *DocumentError) Unwrap() error { return e.Err }

// FieldError reports a problem with one front matter key.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// FenceError reports a code region that does not balance.
type FenceError struct {
	Line  int // 1-based line in the body
	Delim string
	Err   error
}

func (e *FenceError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Delim, e.Err)
}

func (e *FenceError) Unwrap() error { return e.Err }
