package loader

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidArgument is returned when Instantiate is called with a missing
	// capability, loader or an argument that does not fit the constructor.
	ErrInvalidArgument = errors.New("invalid instantiation argument")
	// ErrInvalidClassName is returned for an empty class name, before any
	// loading is attempted.
	ErrInvalidClassName = fmt.Errorf("class name must not be empty: %w", ErrInvalidArgument)

	// ErrClassNotFound is returned when no type is registered under a name.
	ErrClassNotFound = errors.New("class not found")
	// ErrNoMatchingConstructor is returned when a type has no constructor for
	// the requested argument type.
	ErrNoMatchingConstructor = errors.New("no matching constructor")
	// ErrConstructionFailed is returned when a constructor errors, panics or
	// returns nil.
	ErrConstructionFailed = errors.New("construction failed")

	// ErrInvalidTypeName is returned by Register for names with empty segments.
	ErrInvalidTypeName = errors.New("invalid type name")
	// ErrInvalidConstructor is returned by Register for values that are not
	// supported constructor functions.
	ErrInvalidConstructor = errors.New("invalid constructor")
	// ErrAlreadyRegistered is returned by Register for duplicate names.
	ErrAlreadyRegistered = errors.New("type already registered")
)

// IncompatibleTypeError reports a type that loaded fine but does not satisfy
// the required capability. No constructor has been called when it is returned.
type IncompatibleTypeError struct {
	ClassName string
	Required  reflect.Type
	Actual    reflect.Type
}

func (e *IncompatibleTypeError) Error() string {
	return fmt.Sprintf("%s (%v) is not assignable to %v", e.ClassName, e.Actual, e.Required)
}

// DynamicLoadError covers every other failure to build an instance: unknown
// name, missing constructor, failing constructor.
type DynamicLoadError struct {
	ClassName string
	Err       error
}

func (e *DynamicLoadError) Error() string {
	return fmt.Sprintf("failed to instantiate type %s: %v", e.ClassName, e.Err)
}

func (e *DynamicLoadError) Unwrap() error {
	return e.Err
}
