package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the extraction pipeline.
var (
	ErrSearchFailed = errors.New("search failed")
	ErrDetailFetch  = errors.New("detail fetch failed")
	ErrParse        = errors.New("malformed numeric field")
	ErrExport       = errors.New("export failed")
	ErrInvalidInput = errors.New("invalid input")
)

// FetchError describes a per-video failure. It matches ErrDetailFetch.
type FetchError struct {
	VideoID string
	Title   string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("video %s (%s): %v", e.VideoID, e.Title, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrDetailFetch }

// ParseError reports a numeric field in a detail response that could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ExportError wraps a failed file write.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExport }
