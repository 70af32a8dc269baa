package subst

import (
	"errors"
	"fmt"
)

var (
	// ErrUnterminated is returned when a ${ has no matching }.
	ErrUnterminated = errors.New("unterminated variable reference")
	// ErrNilSource is returned when Substitute is called without a primary source.
	ErrNilSource = errors.New("primary property source is required")
)

// ParseError reports malformed substitution syntax. Input is always the
// string originally handed to Substitute.
type ParseError struct {
	Input  string
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse input [%s]: %v at offset %d", e.Input, e.Err, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
