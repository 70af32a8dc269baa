package loader

import (
	"fmt"
	"reflect"
)

// Instantiate builds the type registered as className in l, after checking
// that it is assignable to capability. With a nil argType the zero-argument
// constructor is used; otherwise the constructor taking exactly argType is
// called with arg.
//
// Errors are either *IncompatibleTypeError or *DynamicLoadError, except for
// invalid arguments which are rejected before l is consulted.
func Instantiate(className string, capability reflect.Type, l TypeRegistry, argType reflect.Type, arg any) (any, error) {
	if className == "" {
		return nil, ErrInvalidClassName
	}
	if capability == nil {
		return nil, fmt.Errorf("nil capability: %w", ErrInvalidArgument)
	}
	if l == nil {
		return nil, fmt.Errorf("nil loader: %w", ErrInvalidArgument)
	}

	desc, err := l.Resolve(className)
	if err != nil {
		return nil, &DynamicLoadError{ClassName: className, Err: err}
	}
	if desc == nil {
		return nil, &DynamicLoadError{ClassName: className, Err: ErrClassNotFound}
	}
	if !l.IsAssignable(desc, capability) {
		return nil, &IncompatibleTypeError{ClassName: className, Required: capability, Actual: desc.Type}
	}

	obj, err := l.Construct(desc, argType, arg)
	if err != nil {
		return nil, &DynamicLoadError{ClassName: className, Err: err}
	}
	return obj, nil
}

// InstantiateAs is Instantiate with the capability taken from T.
func InstantiateAs[T any](className string, l TypeRegistry, argType reflect.Type, arg any) (T, error) {
	var zero T

	obj, err := Instantiate(className, reflect.TypeFor[T](), l, argType, arg)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, &IncompatibleTypeError{ClassName: className, Required: reflect.TypeFor[T](), Actual: reflect.TypeOf(obj)}
	}
	return typed, nil
}
