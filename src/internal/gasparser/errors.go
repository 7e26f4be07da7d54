package gasparser

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when the input is missing or is not text.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrParse marks an unexpected failure inside the matching engine.
	ErrParse = errors.New("parse error")
)

// ParseError wraps the cause of an internal matching failure.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
